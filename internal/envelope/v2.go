package envelope

import (
	"errors"
	"fmt"

	"github.com/illarion/credvault/internal/crypto"
)

// Version 2 parameters. The IV is 32 bytes rather than the usual 12 so that
// existing envelopes keep decrypting; changing it needs a new version.
const (
	PasscodeIterations      = 91337
	EncryptionKeyIterations = 33
	SaltSize                = 32
	IVSize                  = 32
)

// encryptV2 runs the derivation chain:
//
//	passcode_hash  = PBKDF2(passphrase, passcode_salt)
//	pre_key        = hex(pre_key_salt || passcode_hash || device_id)
//	encryption_key = PBKDF2(pre_key, encr_key_salt)
//	ciphertext     = AES-GCM(encryption_key, iv, plaintext, aad = device_id)
func (c *Cipher) encryptV2(plaintext []byte, passphrase string) ([]byte, DerivedKeys, error) {
	deviceID, err := c.deviceID()
	if err != nil {
		return nil, DerivedKeys{}, err
	}

	salts, err := crypto.RandomBytes(3*SaltSize + IVSize)
	if err != nil {
		return nil, DerivedKeys{}, err
	}
	passcodeSalt := salts[:SaltSize]
	preKeySalt := salts[SaltSize : 2*SaltSize]
	encrKeySalt := salts[2*SaltSize : 3*SaltSize]
	iv := salts[3*SaltSize:]

	key := deriveV2Key(passphrase, deviceID, passcodeSalt, preKeySalt, encrKeySalt)
	defer crypto.ClearBytes(key)

	ciphertext, err := crypto.AESGCMEncrypt(key, iv, plaintext, deviceID)
	if err != nil {
		return nil, DerivedKeys{}, fmt.Errorf("failed to encrypt: %w", err)
	}

	return ciphertext, DerivedKeys{
		Version:      VersionGCMChain,
		IV:           crypto.BytesToHex(iv),
		PasscodeSalt: crypto.BytesToHex(passcodeSalt),
		PreKeySalt:   crypto.BytesToHex(preKeySalt),
		EncrKeySalt:  crypto.BytesToHex(encrKeySalt),
	}, nil
}

func (c *Cipher) decryptV2(ciphertext []byte, passphrase string, keys DerivedKeys) ([]byte, error) {
	deviceID, err := c.deviceID()
	if err != nil {
		return nil, err
	}

	params := make([][]byte, 0, 4)
	for _, h := range []string{keys.PasscodeSalt, keys.PreKeySalt, keys.EncrKeySalt, keys.IV} {
		b, err := crypto.HexToBytes(h)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
		}
		params = append(params, b)
	}
	if len(params[3]) == 0 {
		return nil, fmt.Errorf("%w: empty iv", ErrDecryption)
	}

	key := deriveV2Key(passphrase, deviceID, params[0], params[1], params[2])
	defer crypto.ClearBytes(key)

	plaintext, err := crypto.AESGCMDecrypt(key, params[3], ciphertext, deviceID)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthFailed) || errors.Is(err, crypto.ErrInvalidCiphertext) {
			return nil, ErrAuthentication
		}
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	return plaintext, nil
}

func deriveV2Key(passphrase string, deviceID, passcodeSalt, preKeySalt, encrKeySalt []byte) []byte {
	passcodeHash := crypto.PBKDF2([]byte(passphrase), passcodeSalt, PasscodeIterations)
	defer crypto.ClearBytes(passcodeHash)

	chain := make([]byte, 0, len(preKeySalt)+len(passcodeHash)+len(deviceID))
	chain = append(chain, preKeySalt...)
	chain = append(chain, passcodeHash...)
	chain = append(chain, deviceID...)
	defer crypto.ClearBytes(chain)

	preKey := []byte(crypto.BytesToHex(chain))
	defer crypto.ClearBytes(preKey)

	return crypto.PBKDF2(preKey, encrKeySalt, EncryptionKeyIterations)
}
