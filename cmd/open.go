package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/credvault/internal/console"
	"github.com/illarion/credvault/internal/crypto"
)

// Open decrypts alias and prints the secret, or writes it to out. A vault
// left behind by an interrupted rekey is restored on the way.
func Open(_ context.Context, alias, out string, force bool) {
	s := OpenSessionOrExit()
	defer s.Close()

	passphrase := GetPassphraseOrExit("Enter passphrase: ")
	defer crypto.ClearBytes(passphrase)

	plaintext, err := s.Vault.OpenRecoverable(alias, string(passphrase))
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(plaintext)

	if out != "" {
		root := openRoot()
		defer root.Close()
		if err := root.WriteSecret(out, plaintext, force); err != nil {
			HandleError(err)
		}
		fmt.Printf("Secret written to %s\n", out)
		fmt.Print(gitWarning(root.Dir(), s.Config.Database, out))
		return
	}

	os.Stdout.Write(plaintext)
	if console.IsTerminal() {
		fmt.Println()
	}
}

// Exists reports whether alias is stored, exiting with status 1 when not
func Exists(_ context.Context, alias string) {
	s := OpenSessionOrExit()
	defer s.Close()

	ok, err := s.Vault.Exists(alias)
	if err != nil {
		HandleError(err)
	}
	if !ok {
		fmt.Printf("%s: not found\n", alias)
		s.Close()
		os.Exit(1)
	}
	fmt.Printf("%s: present\n", alias)
}
