package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name used when none is configured
const DefaultService = "credvault"

// ErrNotFound is returned when the account has no stored secret
var ErrNotFound = errors.New("keyring item not found")

// Store is the OS keyring scoped to one service name
type Store struct {
	service string
}

// New returns a Store for service, or DefaultService when empty
func New(service string) *Store {
	if service == "" {
		service = DefaultService
	}
	return &Store{service: service}
}

// Service returns the keyring service name
func (s *Store) Service() string {
	return s.service
}

// Save stores a secret in the OS keyring
func (s *Store) Save(account, secret string) error {
	return keyring.Set(s.service, account, secret)
}

// Load retrieves a secret from the OS keyring
func (s *Store) Load(account string) (string, error) {
	secret, err := keyring.Get(s.service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return secret, err
}

// Delete removes a secret from the OS keyring. Missing items are not an error.
func (s *Store) Delete(account string) error {
	err := keyring.Delete(s.service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// Has checks if a secret is stored for account
func (s *Store) Has(account string) bool {
	_, err := s.Load(account)
	return err == nil
}
