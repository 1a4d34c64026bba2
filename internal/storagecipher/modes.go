package storagecipher

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/illarion/credvault/internal/crypto"
)

const (
	cbcIVSize = aes.BlockSize
	gcmIVSize = 12
)

// cbcMode is AES-CBC with PKCS#7: iv || ciphertext
type cbcMode struct{}

func (cbcMode) seal(block cipher.Block, plaintext []byte) ([]byte, error) {
	iv, err := crypto.RandomBytes(cbcIVSize)
	if err != nil {
		return nil, err
	}
	ciphertext, err := crypto.CBCEncrypt(block, iv, plaintext)
	if err != nil {
		return nil, err
	}
	return append(iv, ciphertext...), nil
}

func (cbcMode) open(block cipher.Block, data []byte) ([]byte, error) {
	if len(data) < cbcIVSize+aes.BlockSize {
		return nil, crypto.ErrInvalidCiphertext
	}
	return crypto.CBCDecrypt(block, data[:cbcIVSize], data[cbcIVSize:])
}

// gcmMode is AES-GCM without padding: iv || ciphertext || tag
type gcmMode struct{}

func (gcmMode) seal(block cipher.Block, plaintext []byte) ([]byte, error) {
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	iv, err := crypto.RandomBytes(gcmIVSize)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(iv, iv, plaintext, nil), nil
}

func (gcmMode) open(block cipher.Block, data []byte) ([]byte, error) {
	if len(data) < gcmIVSize+crypto.TagSize {
		return nil, crypto.ErrInvalidCiphertext
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	plaintext, err := gcm.Open(nil, data[:gcmIVSize], data[gcmIVSize:], nil)
	if err != nil {
		return nil, crypto.ErrAuthFailed
	}
	return plaintext, nil
}
