package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/credvault/internal/console"
	"github.com/illarion/credvault/internal/crypto"
)

// ReKey changes the passphrase of one or more aliases. Every alias must
// open with the current passphrase before any of them is changed.
func ReKey(_ context.Context, aliases []string) {
	requireArgs(aliases, 1, "credvault rekey <alias> [alias...]")

	s := OpenSessionOrExit()
	defer s.Close()

	current, err := console.ReadPassphrase("Enter current passphrase: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(current)

	next, err := console.ReadPassphraseConfirm("Enter new passphrase: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(next)

	if err := s.Vault.ReKeyBatch(aliases, string(current), string(next)); err != nil {
		HandleError(err)
	}
	s.compact()

	fmt.Printf("Passphrase changed for %d vault(s)\n", len(aliases))
}
