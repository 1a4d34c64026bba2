package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/illarion/credvault/internal/vault"
)

// Ls lists stored aliases. No passphrase is required.
func Ls(_ context.Context) {
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

	fmt.Println("Vaults:")
	for _, alias := range aliases {
		if base, ok := strings.CutSuffix(alias, vault.RecoverySuffix); ok {
			fmt.Printf("  %s (recovery copy of %s, run 'credvault open %s')\n", alias, base, base)
			continue
		}
		fmt.Printf("  %s\n", alias)
	}
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
