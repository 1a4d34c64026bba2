package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/credvault/internal/crypto"
)

// MigrateCheck reports the cipher version of each alias. No passphrase is
// needed.
func MigrateCheck(_ context.Context, aliases []string) {
	s := OpenSessionOrExit()
	defer s.Close()

	if len(aliases) == 0 {
		var err error
		if aliases, err = s.Vault.Aliases(); err != nil {
			HandleError(err)
		}
	}

	failed := false
	for _, alias := range aliases {
		status, err := s.Vault.MigrationRequired(alias)
		if err != nil {
			fmt.Printf("  %s: %s\n", alias, err)
			failed = true
			continue
		}

		state := "up to date"
		switch {
		case status.Required:
			state = "migration required"
		case status.Outdated():
			state = "storage cipher outdated"
		}
		if status.RawSecret {
			fmt.Printf("  %s: storage key, %s: %s\n", alias, status.StorageCipher, state)
			continue
		}
		fmt.Printf("  %s: version %d (latest %d), %s: %s\n",
			alias, status.CurrentVersion, status.LatestVersion, status.StorageCipher, state)
	}

	if failed {
		s.Close()
		os.Exit(1)
	}
}

// Migrate rewrites each alias with the latest ciphers
func Migrate(_ context.Context, aliases []string) {
	requireArgs(aliases, 1, "credvault migrate <alias> [alias...]")

	s := OpenSessionOrExit()
	defer s.Close()

	passphrase := GetPassphraseOrExit("Enter passphrase: ")
	defer crypto.ClearBytes(passphrase)

	for _, alias := range aliases {
		migrated, err := s.Vault.Migrate(alias, string(passphrase))
		if err != nil {
			HandleError(err)
		}
		if migrated {
			fmt.Printf("Migrated %s\n", alias)
		} else {
			fmt.Printf("%s is up to date\n", alias)
		}
	}
}
