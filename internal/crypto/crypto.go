package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	KeySize = 32 // AES-256 key size and PBKDF2 output length
	TagSize = 16 // GCM authentication tag size
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrInvalidPadding    = errors.New("invalid padding")
	ErrAuthFailed        = errors.New("authentication failed")
)

// SHA1 returns the SHA-1 digest of data
func SHA1(data []byte) []byte {
	sum := sha1.Sum(data)
	return sum[:]
}

// SHA256 returns the SHA-256 digest of data
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// SHA512 returns the SHA-512 digest of data
func SHA512(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

// HMAC256 computes HMAC-SHA256 of data under key
func HMAC256(data, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// PBKDF2 derives a KeySize key with PBKDF2-HMAC-SHA512
func PBKDF2(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, KeySize, sha512.New)
}

// AESGCMEncrypt seals data with AES-GCM. The IV may be any non-zero length;
// the tag is appended to the returned ciphertext.
func AESGCMEncrypt(key, iv, data, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key, len(iv))
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, iv, data, aad), nil
}

// AESGCMDecrypt opens data sealed by AESGCMEncrypt
func AESGCMDecrypt(key, iv, data, aad []byte) ([]byte, error) {
	if len(data) < TagSize {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := newGCM(key, len(iv))
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, iv, data, aad)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

func newGCM(key []byte, nonceSize int) (cipher.AEAD, error) {
	if nonceSize == 0 {
		return nil, fmt.Errorf("empty GCM nonce")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

// AESCBCEncrypt encrypts data with AES-CBC and PKCS#7 padding
func AESCBCEncrypt(key, iv, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return CBCEncrypt(block, iv, data)
}

// AESCBCDecrypt decrypts AES-CBC data and strips PKCS#7 padding
func AESCBCDecrypt(key, iv, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return CBCDecrypt(block, iv, data)
}

// CBCEncrypt encrypts data with an already keyed block cipher
func CBCEncrypt(block cipher.Block, iv, data []byte) ([]byte, error) {
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("invalid IV length %d", len(iv))
	}

	padded := pkcs7Pad(data, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// CBCDecrypt reverses CBCEncrypt
func CBCDecrypt(block cipher.Block, iv, data []byte) ([]byte, error) {
	size := block.BlockSize()
	if len(iv) != size {
		return nil, fmt.Errorf("invalid IV length %d", len(iv))
	}
	if len(data) == 0 || len(data)%size != 0 {
		return nil, ErrInvalidCiphertext
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	plaintext, err := pkcs7Unpad(out, size)
	if err != nil {
		ClearBytes(out)
		return nil, err
	}
	return plaintext, nil
}

func pkcs7Pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, size int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > size || n > len(data) {
		return nil, ErrInvalidPadding
	}

	var bad byte
	for _, b := range data[len(data)-n:] {
		bad |= b ^ byte(n)
	}
	if bad != 0 {
		return nil, ErrInvalidPadding
	}

	return data[:len(data)-n], nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// RandomBytes generates n random bytes
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// BytesToHex encodes b as lowercase hex
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexToBytes decodes a hex string
func HexToBytes(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}
