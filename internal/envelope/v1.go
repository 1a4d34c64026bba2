package envelope

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/illarion/credvault/internal/crypto"
)

// Version 1: key = SHA-256(passphrase), AES-CBC with PKCS#7 and the stored
// hex IV. There is no tag, so a wrong passphrase shows up as a padding
// error or as bytes that are not text.
func decryptV1(ciphertext []byte, passphrase string, keys DerivedKeys) ([]byte, error) {
	iv, err := crypto.HexToBytes(keys.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	key := crypto.SHA256([]byte(passphrase))
	defer crypto.ClearBytes(key)

	plaintext, err := crypto.AESCBCDecrypt(key, iv, ciphertext)
	if err != nil {
		if errors.Is(err, crypto.ErrInvalidPadding) || errors.Is(err, crypto.ErrInvalidCiphertext) {
			return nil, ErrWrongPassphraseOrCorrupt
		}
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	// Version 1 only ever stored text secrets.
	if !utf8.Valid(plaintext) {
		crypto.ClearBytes(plaintext)
		return nil, ErrWrongPassphraseOrCorrupt
	}

	return plaintext, nil
}
