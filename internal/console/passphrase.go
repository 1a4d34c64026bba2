package console

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/illarion/credvault/internal/config"
	"github.com/illarion/credvault/internal/crypto"
	"golang.org/x/term"
)

var ErrMismatch = errors.New("passphrases do not match")

// ReadPassphrase prints prompt to stderr and reads a passphrase from the
// terminal without echoing
func ReadPassphrase(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return passphrase, nil
}

// ReadPassphraseConfirm reads a new passphrase twice and ensures both match
func ReadPassphraseConfirm(prompt string) ([]byte, error) {
	first, err := ReadPassphrase(prompt)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(first)

	second, err := ReadPassphrase("Confirm passphrase: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(second)

	if !crypto.ConstantTimeCompare(first, second) {
		return nil, ErrMismatch
	}

	result := make([]byte, len(first))
	copy(result, first)
	return result, nil
}

// PassphraseFromEnv returns a copy of CREDVAULT_PASSPHRASE, or nil when unset
func PassphraseFromEnv() []byte {
	passphrase := os.Getenv(config.EnvPassphrase)
	if passphrase == "" {
		return nil
	}
	return []byte(passphrase)
}

// IsTerminal reports whether stdin is an interactive terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ReadSecret reads the secret to store. On a terminal it is read without
// echo; otherwise all of stdin is used with one trailing newline removed.
func ReadSecret(r io.Reader, interactive bool) ([]byte, error) {
	if interactive {
		return ReadPassphrase("Secret: ")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
		if n := len(data); n > 0 && data[n-1] == '\r' {
			data = data[:n-1]
		}
	}
	return data, nil
}
