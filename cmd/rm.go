package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// Remove deletes aliases and their storage keys
func Remove(_ context.Context, aliases []string) {
	requireArgs(aliases, 1, "credvault rm <alias> [alias...]")

	s := OpenSessionOrExit()
	defer s.Close()

	for _, alias := range aliases {
		if err := s.Vault.Delete(alias); err != nil {
			HandleError(err)
		}
		fmt.Printf("Removed %s\n", alias)
	}

	s.compact()
}

// Purge deletes every vault. Without force it asks for confirmation.
func Purge(_ context.Context, force bool) {
	s := OpenSessionOrExit()
	defer s.Close()

	aliases, err := s.Vault.Aliases()
	if err != nil {
		HandleError(err)
	}
	if len(aliases) == 0 {
		fmt.Println("No vaults stored")
		return
	}

	if !force && !confirm(fmt.Sprintf("Permanently delete %d vault(s)? [y/N] ", len(aliases))) {
		fmt.Println("Aborted")
		return
	}

	if err := s.Vault.DeleteAll(); err != nil {
		HandleError(err)
	}
	s.compact()

	fmt.Printf("Deleted %d vault(s)\n", len(aliases))
}

// confirm asks a yes/no question on stdin
func confirm(question string) bool {
	fmt.Print(question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
