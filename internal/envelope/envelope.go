package envelope

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/deviceid"
)

// Cipher versions. Every stored envelope records the version that wrote it.
const (
	VersionLegacyCBC = 1 // decrypt only
	VersionGCMChain  = 2

	LatestVersion = VersionGCMChain
)

var (
	ErrKeyMaterialUnavailable   = errors.New("key material unavailable")
	ErrUnsupportedVersion       = errors.New("unsupported cipher version")
	ErrUnsupportedOperation     = errors.New("unsupported operation")
	ErrAuthentication           = errors.New("authentication failed")
	ErrWrongPassphraseOrCorrupt = errors.New("wrong passphrase or corrupt data")
	ErrDecryption               = errors.New("decryption failed")
	ErrInvalidDerivedKeys       = errors.New("invalid derived keys")
)

// Cipher encrypts secrets under a passphrase and binds them to the device
// reported by Device.
type Cipher struct {
	Device deviceid.Source
}

// New creates a Cipher bound to device
func New(device deviceid.Source) *Cipher {
	return &Cipher{Device: device}
}

// Encrypt encrypts plaintext with the latest cipher version
func (c *Cipher) Encrypt(plaintext []byte, passphrase string) ([]byte, DerivedKeys, error) {
	return c.EncryptVersion(LatestVersion, plaintext, passphrase)
}

// EncryptVersion encrypts plaintext with an explicit cipher version. Only
// versions that still accept new data can be selected.
func (c *Cipher) EncryptVersion(version int, plaintext []byte, passphrase string) ([]byte, DerivedKeys, error) {
	switch version {
	case VersionLegacyCBC:
		return nil, DerivedKeys{}, fmt.Errorf("%w: version %d is decrypt-only", ErrUnsupportedOperation, version)
	case VersionGCMChain:
		return c.encryptV2(plaintext, passphrase)
	default:
		return nil, DerivedKeys{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

// Decrypt reverses Encrypt using the version recorded in keys. No partial
// plaintext is ever returned alongside an error.
func (c *Cipher) Decrypt(ciphertext []byte, passphrase string, keys DerivedKeys) ([]byte, error) {
	switch keys.Version {
	case VersionLegacyCBC:
		return decryptV1(ciphertext, passphrase, keys)
	case VersionGCMChain:
		return c.decryptV2(ciphertext, passphrase, keys)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, keys.Version)
	}
}

func (c *Cipher) deviceID() ([]byte, error) {
	if c.Device == nil {
		return nil, fmt.Errorf("%w: no device identity source", ErrKeyMaterialUnavailable)
	}
	id, err := c.Device.DeviceID()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyMaterialUnavailable, err)
	}
	if len(id) == 0 {
		return nil, fmt.Errorf("%w: empty device identity", ErrKeyMaterialUnavailable)
	}
	return id, nil
}

// EncodeCiphertext converts ciphertext to its stored text form: base64 for
// version 1, lowercase hex for later versions.
func EncodeCiphertext(version int, ciphertext []byte) string {
	if version == VersionLegacyCBC {
		return base64.StdEncoding.EncodeToString(ciphertext)
	}
	return crypto.BytesToHex(ciphertext)
}

// DecodeCiphertext reverses EncodeCiphertext
func DecodeCiphertext(version int, text string) ([]byte, error) {
	if version == VersionLegacyCBC {
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64 ciphertext", ErrWrongPassphraseOrCorrupt)
		}
		return b, nil
	}
	b, err := crypto.HexToBytes(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	return b, nil
}
