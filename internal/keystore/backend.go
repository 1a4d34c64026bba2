package keystore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/illarion/credvault/internal/keyring"
)

// keyringBackend keeps keys in the OS keyring (macOS Keychain, Secret
// Service, Windows Credential Manager).
type keyringBackend struct {
	store *keyring.Store
}

// NewKeyringBackend returns the standard tier backend
func NewKeyringBackend(store *keyring.Store) Backend {
	return &keyringBackend{store: store}
}

func (b *keyringBackend) Name() string { return "keyring" }

func account(alias string) string { return "key:" + alias }

func (b *keyringBackend) Load(alias string) ([]byte, error) {
	encoded, err := b.store.Load(account(alias))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable key blob for %s", ErrKeyInvalidated, alias)
	}
	return raw, nil
}

func (b *keyringBackend) Store(alias string, key []byte) error {
	return b.store.Save(account(alias), base64.StdEncoding.EncodeToString(key))
}

func (b *keyringBackend) Delete(alias string) error {
	return b.store.Delete(account(alias))
}

// MemoryBackend keeps keys in process memory. Keys do not survive a restart.
type MemoryBackend struct {
	mu   sync.Mutex
	keys map[string][]byte
}

// NewMemoryBackend creates an empty MemoryBackend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{keys: make(map[string][]byte)}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Load(alias string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, ok := m.keys[alias]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), key...), nil
}

func (m *MemoryBackend) Store(alias string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys[alias] = append([]byte(nil), key...)
	return nil
}

func (m *MemoryBackend) Delete(alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.keys, alias)
	return nil
}

// Aliases returns the aliases with a stored key
func (m *MemoryBackend) Aliases() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	aliases := make([]string, 0, len(m.keys))
	for alias := range m.keys {
		aliases = append(aliases, alias)
	}
	return aliases
}
