package cmd

import (
	"context"
	"fmt"
	"os"
)

// Compact compacts the vault database to reclaim unused space
func Compact(_ context.Context) {
	s := OpenSessionOrExit()
	defer s.Close()

	path := s.Store.Path()

	info, err := os.Stat(path)
	if err != nil {
		HandleError(err)
	}
	sizeBefore := info.Size()

	if err := s.Store.Compact(); err != nil {
		HandleError(err)
	}

	info, err = os.Stat(path)
	if err != nil {
		HandleError(err)
	}
	sizeAfter := info.Size()

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
}
