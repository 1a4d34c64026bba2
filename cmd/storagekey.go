package cmd

import (
	"context"
	"fmt"
)

// StorageKey prints the random storage encryption key kept under alias,
// generating it on first use
func StorageKey(_ context.Context, alias string, length int) {
	s := OpenSessionOrExit()
	defer s.Close()

	key, err := s.Vault.GetOrCreateRandomSecret(alias, length)
	if err != nil {
		HandleError(err)
	}
	fmt.Println(key)
}
