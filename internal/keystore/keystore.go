package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
	"github.com/illarion/credvault/internal/crypto"
	"go.uber.org/zap"
)

// KeySize is the size of every generated key (AES-256)
const KeySize = 32

var (
	ErrKeyNotFound        = errors.New("key not found")
	ErrBackendUnavailable = errors.New("key backend unavailable")
	ErrTransient          = errors.New("key temporarily unusable")
	ErrKeyInvalidated     = errors.New("key permanently invalidated")
)

// Backend persists raw key material for one tier of protection
type Backend interface {
	Name() string
	// Load returns ErrKeyNotFound when alias has no key.
	Load(alias string) ([]byte, error)
	Store(alias string, key []byte) error
	// Delete succeeds when alias has no key.
	Delete(alias string) error
}

// Tier records which backend new keys are generated in
type Tier int

const (
	TierUntried Tier = iota
	TierSecureElement
	TierStandard
)

func (t Tier) String() string {
	switch t {
	case TierSecureElement:
		return "secure-element"
	case TierStandard:
		return "standard"
	default:
		return "untried"
	}
}

// KeyStore hands out non-extractable symmetric keys by alias. New keys go to
// the secure element backend when one is configured and works; after its
// first failure new keys only go to the standard backend. Lookups and
// deletes always consult every configured backend.
type KeyStore struct {
	secure   Backend
	standard Backend
	log      *zap.Logger

	mu   sync.Mutex
	tier Tier
}

// Option configures a KeyStore
type Option func(*KeyStore)

// WithSecureElement adds a stronger backend tried before the standard one
func WithSecureElement(b Backend) Option {
	return func(ks *KeyStore) { ks.secure = b }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(ks *KeyStore) { ks.log = l }
}

// New creates a KeyStore over the standard backend
func New(standard Backend, opts ...Option) *KeyStore {
	ks := &KeyStore{standard: standard, log: zap.NewNop()}
	for _, opt := range opts {
		opt(ks)
	}
	if ks.secure == nil {
		ks.tier = TierStandard
	}
	return ks
}

// Tier returns the tier new keys are currently generated in
func (ks *KeyStore) Tier() Tier {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.tier
}

// GenerateOrGet returns the key stored under alias, generating it first if
// no backend has one.
func (ks *KeyStore) GenerateOrGet(alias string) (*Key, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	raw, err := ks.find(alias)
	if errors.Is(err, ErrKeyNotFound) {
		var b Backend
		b, err = ks.generate(alias)
		if err != nil {
			return nil, err
		}
		raw, err = ks.load(b, alias)
	}
	if err != nil {
		return nil, err
	}

	return newKey(alias, raw), nil
}

// Get returns the key stored under alias without generating one
func (ks *KeyStore) Get(alias string) (*Key, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	raw, err := ks.find(alias)
	if err != nil {
		return nil, err
	}
	return newKey(alias, raw), nil
}

// Delete removes the key under alias from every backend
func (ks *KeyStore) Delete(alias string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	var errs []error
	for _, b := range ks.backends() {
		if err := b.Delete(alias); err != nil && !errors.Is(err, ErrBackendUnavailable) {
			errs = append(errs, fmt.Errorf("failed to delete key from %s: %w", b.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// backends lists every backend a key may live in. The tier only decides
// where new keys are generated; keys created in the secure element before a
// fallback stay reachable.
func (ks *KeyStore) backends() []Backend {
	if ks.secure != nil {
		return []Backend{ks.secure, ks.standard}
	}
	return []Backend{ks.standard}
}

func (ks *KeyStore) find(alias string) ([]byte, error) {
	for _, b := range ks.backends() {
		raw, err := ks.load(b, alias)
		switch {
		case err == nil:
			return raw, nil
		case errors.Is(err, ErrKeyNotFound):
			continue
		case b == ks.secure && errors.Is(err, ErrBackendUnavailable):
			ks.log.Debug("secure element not readable", zap.String("alias", alias), zap.Error(err))
			continue
		default:
			return nil, err
		}
	}
	return nil, ErrKeyNotFound
}

// load reads a key, retrying exactly once when the backend reports a
// transiently unusable handle.
func (ks *KeyStore) load(b Backend, alias string) ([]byte, error) {
	raw, err := b.Load(alias)
	if errors.Is(err, ErrTransient) {
		ks.log.Debug("retrying key load", zap.String("backend", b.Name()), zap.String("alias", alias))
		raw, err = b.Load(alias)
	}
	if err != nil {
		return nil, err
	}

	if len(raw) != KeySize {
		crypto.ClearBytes(raw)
		return nil, fmt.Errorf("%w: %s holds a %d byte key for %s", ErrKeyInvalidated, b.Name(), len(raw), alias)
	}
	return raw, nil
}

func (ks *KeyStore) generate(alias string) (Backend, error) {
	raw, err := crypto.RandomBytes(KeySize)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(raw)

	if ks.secure != nil && ks.tier != TierStandard {
		err := ks.secure.Store(alias, raw)
		if err == nil {
			ks.tier = TierSecureElement
			return ks.secure, nil
		}
		ks.markSecureUnavailable(err)
	}

	if err := ks.standard.Store(alias, raw); err != nil {
		ks.log.Error("standard key storage is not available", zap.String("backend", ks.standard.Name()), zap.Error(err))
		return nil, fmt.Errorf("failed to store key in %s: %w", ks.standard.Name(), err)
	}
	ks.tier = TierStandard
	return ks.standard, nil
}

func (ks *KeyStore) markSecureUnavailable(err error) {
	ks.log.Warn("secure element key storage is not available",
		zap.String("backend", ks.secure.Name()), zap.Error(err))
	ks.tier = TierStandard
}

// Key is a loaded key sealed in an encrypted enclave. The raw bytes are only
// exposed to the cipher constructor inside Use.
type Key struct {
	alias   string
	enclave *memguard.Enclave
}

// newKey seals raw into an enclave and wipes raw
func newKey(alias string, raw []byte) *Key {
	return &Key{alias: alias, enclave: memguard.NewEnclave(raw)}
}

// Alias returns the key's alias
func (k *Key) Alias() string {
	return k.alias
}

// Use runs fn with an AES block cipher keyed by k
func (k *Key) Use(fn func(block cipher.Block) error) error {
	buf, err := k.enclave.Open()
	if err != nil {
		return fmt.Errorf("%w: failed to open key enclave: %v", ErrTransient, err)
	}
	defer buf.Destroy()

	block, err := aes.NewCipher(buf.Bytes())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyInvalidated, err)
	}
	return fn(block)
}
