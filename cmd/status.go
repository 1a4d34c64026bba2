package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/illarion/credvault/internal/config"
	"github.com/illarion/credvault/internal/envelope"
	"github.com/illarion/credvault/internal/git"
	"github.com/illarion/credvault/internal/storagecipher"
)

// Status shows the database, configuration and git state. No passphrase
// is required.
func Status(_ context.Context) {
	cfg, err := config.FromEnvironment()
	if err != nil {
		HandleError(err)
	}

	if _, err := os.Stat(cfg.Database); os.IsNotExist(err) {
		fmt.Printf("No vault database at %s\n", cfg.Database)
		fmt.Println("Run 'credvault create <alias>' to create one")
		return
	}

	s := OpenSessionOrExit()
	defer s.Close()

	stats, err := s.Store.Stats()
	if err != nil {
		HandleError(err)
	}
	aliases, err := s.Vault.Aliases()
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Database:        %s (%s)\n", cfg.Database, formatSize(stats.Size))
	fmt.Printf("Vaults:          %d\n", len(aliases))
	fmt.Printf("Created:         %s\n", stats.Created.Format(time.RFC3339))
	fmt.Printf("Modified:        %s\n", stats.Modified.Format(time.RFC3339))
	fmt.Printf("Keyring service: %s\n", s.Ring.Service())
	fmt.Printf("Device identity: %s\n", provisioned(s.Device.Provisioned()))
	fmt.Printf("Secure element:  %t\n", cfg.SecureElement)
	fmt.Printf("Envelope cipher: version %d\n", envelope.LatestVersion)
	fmt.Printf("Storage cipher:  %s\n", storagecipher.Latest)

	outdated := 0
	for _, alias := range aliases {
		status, err := s.Vault.MigrationRequired(alias)
		if err != nil || status.Outdated() {
			outdated++
		}
	}
	if outdated > 0 {
		fmt.Printf("\n%d vault(s) need attention, run 'credvault migrate-check'\n", outdated)
	}

	fmt.Print(git.Check(".", cfg.Database).Format())
}

func provisioned(ok bool) string {
	if ok {
		return "present"
	}
	return "not created yet"
}
