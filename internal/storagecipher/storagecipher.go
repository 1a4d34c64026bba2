// Package storagecipher implements the outer, device-keyed encryption layer
// applied to vault entries before they are persisted.
//
// Each strategy encrypts the two fields of an entry independently under a
// key held by the keystore, prefixing every ciphertext with its own random
// IV. New entries always use Latest; stored entries record the Name that
// wrote them and are decrypted by that strategy.
package storagecipher

import (
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/illarion/credvault/internal/keystore"
)

// Name identifies a strategy. It is persisted with every entry.
type Name string

const (
	AESCBC Name = "AES-CBC-HW"
	AESGCM Name = "AES-GCM-HW"

	Latest = AESGCM
)

// Names lists every known strategy, oldest first
var Names = []Name{AESCBC, AESGCM}

var (
	ErrUnknownCipher             = errors.New("unknown storage cipher")
	ErrKeyPermanentlyInvalidated = errors.New("storage key permanently invalidated")
	ErrCryptoFailure             = errors.New("storage cipher failure")
)

// ParseName validates a stored cipher tag
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCipher, s)
}

// EncryptionResult holds both encrypted fields and the strategy that wrote them
type EncryptionResult struct {
	FieldA     []byte
	FieldB     []byte
	CipherName Name
}

// DecryptionResult holds both decrypted fields
type DecryptionResult struct {
	FieldA string
	FieldB string
}

// Cipher is one storage strategy
type Cipher interface {
	Name() Name
	Encrypt(alias, fieldA, fieldB string) (EncryptionResult, error)
	Decrypt(alias string, fieldA, fieldB []byte) (DecryptionResult, error)
	RemoveKey(alias string) error
}

// mode is the block mode specific half of a strategy
type mode interface {
	seal(block cipher.Block, plaintext []byte) ([]byte, error)
	open(block cipher.Block, data []byte) ([]byte, error)
}

// New returns the strategy registered under name
func New(name Name, keys *keystore.KeyStore) (Cipher, error) {
	switch name {
	case AESCBC:
		return &base{name: name, keys: keys, mode: cbcMode{}}, nil
	case AESGCM:
		return &base{name: name, keys: keys, mode: gcmMode{}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, name)
	}
}

// base holds what all strategies share: key lookup and error mapping
type base struct {
	name Name
	keys *keystore.KeyStore
	mode mode
}

func (b *base) Name() Name { return b.name }

// keyAlias namespaces hardware keys so strategies never share a key
func (b *base) keyAlias(alias string) string {
	return string(b.name) + "/" + alias
}

func (b *base) Encrypt(alias, fieldA, fieldB string) (EncryptionResult, error) {
	key, err := b.keys.GenerateOrGet(b.keyAlias(alias))
	if err != nil {
		return EncryptionResult{}, b.wrap("encrypt", alias, err)
	}

	var result EncryptionResult
	err = key.Use(func(block cipher.Block) error {
		var err error
		if result.FieldA, err = b.mode.seal(block, []byte(fieldA)); err != nil {
			return err
		}
		result.FieldB, err = b.mode.seal(block, []byte(fieldB))
		return err
	})
	if err != nil {
		return EncryptionResult{}, b.wrap("encrypt", alias, err)
	}

	result.CipherName = b.name
	return result, nil
}

func (b *base) Decrypt(alias string, fieldA, fieldB []byte) (DecryptionResult, error) {
	key, err := b.keys.Get(b.keyAlias(alias))
	if err != nil {
		return DecryptionResult{}, b.wrap("decrypt", alias, err)
	}

	var a, bb []byte
	err = key.Use(func(block cipher.Block) error {
		var err error
		if a, err = b.mode.open(block, fieldA); err != nil {
			return err
		}
		bb, err = b.mode.open(block, fieldB)
		return err
	})
	if err != nil {
		return DecryptionResult{}, b.wrap("decrypt", alias, err)
	}

	return DecryptionResult{FieldA: string(a), FieldB: string(bb)}, nil
}

func (b *base) RemoveKey(alias string) error {
	if err := b.keys.Delete(b.keyAlias(alias)); err != nil {
		return b.wrap("remove key", alias, err)
	}
	return nil
}

func (b *base) wrap(op, alias string, err error) error {
	kind := ErrCryptoFailure
	if errors.Is(err, keystore.ErrKeyInvalidated) {
		kind = ErrKeyPermanentlyInvalidated
	}
	return fmt.Errorf("%w: %s %s with alias %s: %w", kind, b.name, op, alias, err)
}
