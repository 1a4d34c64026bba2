package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/credvault/internal/console"
	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/git"
)

// Diff compares the secret stored under alias with a local file
func Diff(_ context.Context, alias, file string) {
	root := openRoot()
	defer root.Close()

	local, err := root.ReadFile(file)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(local)

	s := OpenSessionOrExit()
	defer s.Close()

	passphrase := GetPassphraseOrExit("Enter passphrase: ")
	defer crypto.ClearBytes(passphrase)

	stored, err := s.Vault.Open(alias, string(passphrase))
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(stored)

	out := console.UnifiedDiff(alias, file, stored, local)
	if out == "" {
		fmt.Printf("%s matches %s\n", alias, file)
		return
	}
	fmt.Print(out)

	fmt.Print(gitWarning(root.Dir(), s.Config.Database, file))
}

// gitWarning reports a plaintext secret file that git would pick up
func gitWarning(dir, database, file string) string {
	status := git.Check(dir, database, file)
	if len(status.TrackedSecrets) == 0 && len(status.UnignoredFiles) == 0 {
		return ""
	}
	return status.Format()
}
