package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func TestPBKDF2KnownVector(t *testing.T) {
	got := PBKDF2([]byte("password"), []byte("salt"), 1)
	want := "867f70cf1ade02cff3752599a3a53dc4af34c7a669815ae5d513554e1c8cf252"

	if hex.EncodeToString(got) != want {
		t.Errorf("PBKDF2 mismatch: got %x, want %s", got, want)
	}
	if len(got) != KeySize {
		t.Errorf("Expected %d byte key, got %d", KeySize, len(got))
	}
}

func TestHMAC256KnownVector(t *testing.T) {
	got := HMAC256([]byte("what do ya want for nothing?"), []byte("Jefe"))
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"

	if hex.EncodeToString(got) != want {
		t.Errorf("HMAC mismatch: got %x, want %s", got, want)
	}
}

func TestHashLengths(t *testing.T) {
	data := []byte("credvault")
	if len(SHA1(data)) != 20 {
		t.Error("SHA1 should be 20 bytes")
	}
	if len(SHA256(data)) != 32 {
		t.Error("SHA256 should be 32 bytes")
	}
	if len(SHA512(data)) != 64 {
		t.Error("SHA512 should be 64 bytes")
	}
}

func TestGCMLongIV(t *testing.T) {
	key, _ := RandomBytes(KeySize)
	iv, _ := RandomBytes(32)
	aad := []byte("device")

	ciphertext, err := AESGCMEncrypt(key, iv, []byte("secret"), aad)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(ciphertext) != len("secret")+TagSize {
		t.Errorf("Unexpected ciphertext length %d", len(ciphertext))
	}

	plaintext, err := AESGCMDecrypt(key, iv, ciphertext, aad)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(plaintext) != "secret" {
		t.Errorf("Plaintext mismatch: got %q", plaintext)
	}

	// Different AAD must fail authentication
	if _, err := AESGCMDecrypt(key, iv, ciphertext, []byte("other")); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Expected ErrAuthFailed, got %v", err)
	}

	// Tampered ciphertext must fail authentication
	ciphertext[0] ^= 0xff
	if _, err := AESGCMDecrypt(key, iv, ciphertext, aad); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Expected ErrAuthFailed, got %v", err)
	}

	if _, err := AESGCMDecrypt(key, iv, []byte("short"), aad); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("Expected ErrInvalidCiphertext, got %v", err)
	}
}

func TestCBCRoundTrip(t *testing.T) {
	key, _ := RandomBytes(KeySize)
	iv, _ := RandomBytes(16)

	for _, size := range []int{0, 1, 15, 16, 17, 100} {
		data := bytes.Repeat([]byte{'x'}, size)
		ciphertext, err := AESCBCEncrypt(key, iv, data)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		if len(ciphertext)%16 != 0 || len(ciphertext) <= size {
			t.Errorf("Unexpected ciphertext length %d for size %d", len(ciphertext), size)
		}

		plaintext, err := AESCBCDecrypt(key, iv, ciphertext)
		if err != nil {
			t.Fatalf("Decrypt failed for size %d: %v", size, err)
		}
		if !bytes.Equal(plaintext, data) {
			t.Errorf("Plaintext mismatch for size %d", size)
		}
	}
}

func TestCBCRejectsMalformed(t *testing.T) {
	key, _ := RandomBytes(KeySize)
	iv, _ := RandomBytes(16)

	if _, err := AESCBCDecrypt(key, iv, []byte("not-a-block")); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("Expected ErrInvalidCiphertext, got %v", err)
	}

	ciphertext, err := AESCBCEncrypt(key, iv, []byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := AESCBCDecrypt(key, iv[:8], ciphertext); err == nil {
		t.Error("Expected error for short IV")
	}
}

func TestPKCS7Unpad(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		ok   bool
	}{
		{"full block", bytes.Repeat([]byte{16}, 16), true},
		{"one byte", append(bytes.Repeat([]byte{'a'}, 15), 1), true},
		{"zero pad", append(bytes.Repeat([]byte{'a'}, 15), 0), false},
		{"too large", append(bytes.Repeat([]byte{'a'}, 15), 17), false},
		{"inconsistent", append(bytes.Repeat([]byte{'a'}, 14), 3, 2), false},
	}

	for _, tc := range cases {
		_, err := pkcs7Unpad(tc.data, 16)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidPadding) {
			t.Errorf("%s: expected ErrInvalidPadding, got %v", tc.name, err)
		}
	}
}

func TestHexHelpers(t *testing.T) {
	b := []byte{0x00, 0xab, 0xff}
	if BytesToHex(b) != "00abff" {
		t.Errorf("Unexpected hex %s", BytesToHex(b))
	}
	back, err := HexToBytes("00abff")
	if err != nil || !bytes.Equal(back, b) {
		t.Errorf("HexToBytes mismatch: %v %v", back, err)
	}
	if _, err := HexToBytes("abc"); err == nil {
		t.Error("Expected error for odd hex")
	}
}

func TestClearBytes(t *testing.T) {
	b := []byte("sensitive")
	ClearBytes(b)
	for _, c := range b {
		if c != 0 {
			t.Fatal("ClearBytes left data behind")
		}
	}
}
