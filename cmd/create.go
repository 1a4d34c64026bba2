package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/credvault/internal/console"
	"github.com/illarion/credvault/internal/crypto"
)

// Create stores a new secret under alias. The secret comes from file when
// given, otherwise from stdin.
func Create(_ context.Context, alias, file string) {
	var (
		secret []byte
		err    error
	)
	if file != "" {
		root := openRoot()
		secret, err = root.ReadFile(file)
		root.Close()
	} else {
		secret, err = console.ReadSecret(os.Stdin, console.IsTerminal())
	}
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(secret)

	s := OpenSessionOrExit()
	defer s.Close()

	passphrase, err := GetNewPassphrase("Enter passphrase: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(passphrase)

	if err := s.Vault.Create(alias, secret, string(passphrase)); err != nil {
		HandleError(err)
	}

	fmt.Printf("Vault %s created\n", alias)
}
