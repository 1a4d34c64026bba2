// Package deviceid provides the stable per-device identifier that binds
// vault envelopes to the machine they were created on.
//
// The identifier is not secret. It is mixed into the envelope key derivation
// and used as GCM associated data, so an envelope created on one device cannot
// be opened on another even with the right passphrase.
package deviceid

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/illarion/credvault/internal/keyring"
)

// Size is the length in bytes of every identifier returned by a Source
const Size = sha256.Size

const keyringAccount = "device-id"

// ErrUnavailable is returned when the device identity cannot be read
var ErrUnavailable = errors.New("device identity unavailable")

// Source yields the device identifier
type Source interface {
	DeviceID() ([]byte, error)
}

// static is a fixed identifier, used for tests and simulated devices
type static []byte

// Static returns a Source that always yields SHA-256(id)
func Static(id []byte) Source {
	sum := sha256.Sum256(id)
	return static(sum[:])
}

func (s static) DeviceID() ([]byte, error) {
	return append([]byte(nil), s...), nil
}

// Unavailable returns a Source that always fails, for exercising error paths
func Unavailable() Source {
	return unavailable{}
}

type unavailable struct{}

func (unavailable) DeviceID() ([]byte, error) { return nil, ErrUnavailable }

// Keyring derives the identifier from a random UUID persisted in the OS
// keyring. The UUID is created on first access and cached for the life of
// the Keyring.
type Keyring struct {
	store *keyring.Store

	mu sync.Mutex
	id []byte
}

// NewKeyring returns a Keyring source backed by store
func NewKeyring(store *keyring.Store) *Keyring {
	return &Keyring{store: store}
}

// DeviceID implements Source
func (k *Keyring) DeviceID() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.id == nil {
		raw, err := k.loadOrCreate()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		sum := sha256.Sum256([]byte(raw))
		k.id = sum[:]
	}

	return append([]byte(nil), k.id...), nil
}

// Provisioned reports whether the keyring already holds a device UUID. It
// never creates one.
func (k *Keyring) Provisioned() bool {
	return k.store.Has(keyringAccount)
}

func (k *Keyring) loadOrCreate() (string, error) {
	raw, err := k.store.Load(keyringAccount)
	if err == nil {
		if _, perr := uuid.Parse(raw); perr != nil {
			return "", fmt.Errorf("stored device id is corrupt: %w", perr)
		}
		return raw, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return "", err
	}

	raw = uuid.NewString()
	if err := k.store.Save(keyringAccount, raw); err != nil {
		return "", fmt.Errorf("failed to store device id: %w", err)
	}
	return raw, nil
}
