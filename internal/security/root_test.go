package security

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestNormalize(t *testing.T) {
	root, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	defer root.Close()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"simple file", "seed.txt", "seed.txt", nil},
		{"file in subdirectory", "backup/seed.txt", filepath.Join("backup", "seed.txt"), nil},
		{"hidden file", ".env", ".env", nil},
		{"dot slash", "./seed.txt", "seed.txt", nil},
		{"dot segments", "a/./b/../seed.txt", filepath.Join("a", "seed.txt"), nil},

		{"parent directory", "../seed.txt", "", ErrPathEscapes},
		{"nested parent", "a/../../seed.txt", "", ErrPathEscapes},
		{"absolute path", "/etc/passwd", "", ErrAbsolutePath},
		{"empty path", "", "", ErrEmptyPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.Normalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v for %q, got %v", tt.wantErr, tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for %q: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWriteAndReadSecret(t *testing.T) {
	dir := t.TempDir()
	root, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	defer root.Close()

	if err := root.WriteSecret("seed.txt", []byte("Hello World"), false); err != nil {
		t.Fatalf("Failed to write secret: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "seed.txt"))
	if err != nil {
		t.Fatalf("Failed to stat secret: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != SecretFileMode {
		t.Errorf("Permissions mismatch: got %o, want %o", info.Mode().Perm(), SecretFileMode)
	}

	data, err := root.ReadFile("seed.txt")
	if err != nil {
		t.Fatalf("Failed to read secret: %v", err)
	}
	if string(data) != "Hello World" {
		t.Errorf("Content mismatch: got %q", data)
	}
}

func TestWriteSecretRefusesOverwrite(t *testing.T) {
	root, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	defer root.Close()

	if err := root.WriteSecret("seed.txt", []byte("first"), false); err != nil {
		t.Fatalf("Failed to write secret: %v", err)
	}
	if err := root.WriteSecret("seed.txt", []byte("second"), false); !errors.Is(err, ErrFileExists) {
		t.Errorf("Expected ErrFileExists, got %v", err)
	}

	if err := root.WriteSecret("seed.txt", []byte("third"), true); err != nil {
		t.Fatalf("Failed to overwrite secret: %v", err)
	}
	data, err := root.ReadFile("seed.txt")
	if err != nil {
		t.Fatalf("Failed to read secret: %v", err)
	}
	if string(data) != "third" {
		t.Errorf("Content mismatch: got %q", data)
	}
}

func TestEscapePrevention(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "work")
	if err := os.Mkdir(dir, 0700); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	outside := filepath.Join(parent, "outside.txt")
	if err := os.WriteFile(outside, []byte("outside"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	root, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	defer root.Close()

	if err := root.WriteSecret("../pwned.txt", []byte("pwned"), false); err == nil {
		t.Error("Expected error when writing outside root")
	}
	if _, err := os.Stat(filepath.Join(parent, "pwned.txt")); err == nil {
		t.Error("File was created outside the root")
	}

	if _, err := root.ReadFile("../outside.txt"); err == nil {
		t.Error("Expected error when reading outside root")
	}

	if runtime.GOOS != "windows" {
		if err := os.Symlink(outside, filepath.Join(dir, "link.txt")); err != nil {
			t.Fatalf("Failed to create symlink: %v", err)
		}
		if _, err := root.ReadFile("link.txt"); err == nil {
			t.Error("Expected error when following a symlink out of the root")
		}
	}
}
