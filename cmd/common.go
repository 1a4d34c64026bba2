package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/illarion/credvault/internal/config"
	"github.com/illarion/credvault/internal/console"
	"github.com/illarion/credvault/internal/deviceid"
	"github.com/illarion/credvault/internal/keyring"
	"github.com/illarion/credvault/internal/keystore"
	"github.com/illarion/credvault/internal/security"
	"github.com/illarion/credvault/internal/storage"
	"github.com/illarion/credvault/internal/vault"
	"go.uber.org/zap"
)

// Session is an opened vault database plus everything built around it
type Session struct {
	Config *config.Config
	Log    *zap.Logger
	Ring   *keyring.Store
	Device *deviceid.Keyring
	Store  *storage.Storage
	Keys   *keystore.KeyStore
	Vault  *vault.Vault
}

// OpenSession loads the configuration and opens the vault it points to. The
// keyring is not touched until an operation needs a key or the device
// identity.
func OpenSession() (*Session, error) {
	cfg, err := config.FromEnvironment()
	if err != nil {
		return nil, err
	}

	log, err := cfg.Logger(os.Stderr)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	ring := keyring.New(cfg.Service)
	opts := []keystore.Option{keystore.WithLogger(log.Named("keystore"))}
	if cfg.SecureElement {
		opts = append(opts, keystore.WithSecureElement(keystore.NewSecureElementBackend(cfg.Service)))
	}
	keys := keystore.New(keystore.NewKeyringBackend(ring), opts...)

	device := deviceid.NewKeyring(ring)
	v := vault.New(store, keys, device, vault.WithLogger(log.Named("vault")))

	log.Debug("vault opened", zap.String("database", cfg.Database), zap.String("service", cfg.Service))
	return &Session{Config: cfg, Log: log, Ring: ring, Device: device, Store: store, Keys: keys, Vault: v}, nil
}

// OpenSessionOrExit is like OpenSession but exits on error
func OpenSessionOrExit() *Session {
	s, err := OpenSession()
	if err != nil {
		HandleError(err)
	}
	return s
}

// Close closes the database and flushes the logger
func (s *Session) Close() {
	if err := s.Store.Close(); err != nil {
		s.Log.Warn("failed to close database", zap.Error(err))
	}
	_ = s.Log.Sync()
}

// compact reclaims space after entries were removed
func (s *Session) compact() {
	if err := s.Store.Compact(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}
}

// GetPassphrase retrieves the passphrase from the environment or prompts
// for it. The caller is responsible for calling crypto.ClearBytes on it.
func GetPassphrase(prompt string) ([]byte, error) {
	if passphrase := console.PassphraseFromEnv(); passphrase != nil {
		return passphrase, nil
	}
	return console.ReadPassphrase(prompt)
}

// GetPassphraseOrExit is like GetPassphrase but exits on error
func GetPassphraseOrExit(prompt string) []byte {
	passphrase, err := GetPassphrase(prompt)
	if err != nil {
		HandleError(err)
	}
	return passphrase
}

// GetNewPassphrase retrieves a passphrase for new data, asking twice when
// prompting.
func GetNewPassphrase(prompt string) ([]byte, error) {
	if passphrase := console.PassphraseFromEnv(); passphrase != nil {
		return passphrase, nil
	}
	return console.ReadPassphraseConfirm(prompt)
}

// openRoot confines secret file access to the working directory
func openRoot() *security.Root {
	root, err := security.Open(".")
	if err != nil {
		HandleError(err)
	}
	return root
}

// requireArgs exits with usage when fewer than n arguments are given
func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "Error: missing arguments\n")
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		os.Exit(1)
	}
}

// HandleError prints err with a hint for the common cases and exits
func HandleError(err error) {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use 'credvault ls' to see stored aliases\n")
	case errors.Is(err, vault.ErrAlreadyExists):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use 'credvault rm' first, vaults are never overwritten\n")
	case errors.Is(err, vault.ErrAuthenticationFailure),
		errors.Is(err, vault.ErrWrongPassphraseOrCorruptData):
		fmt.Fprintf(os.Stderr, "Error: wrong passphrase or corrupt data\n")
	case errors.Is(err, vault.ErrDeviceIdentityUnavailable):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "The OS keyring must be unlocked to read the device identity\n")
	case errors.Is(err, vault.ErrHardwareKeyUnusable):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "The storage key for this alias is missing or was invalidated\n")
	case errors.Is(err, console.ErrMismatch):
		fmt.Fprintf(os.Stderr, "Error: passphrases do not match\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}
