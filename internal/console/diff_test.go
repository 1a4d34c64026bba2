package console

import (
	"strings"
	"testing"
)

func TestIsText(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{"plain ASCII text", []byte("Hello, World!\nThis is a test."), true},
		{"UTF-8 with special chars", []byte("Hello 世界! Ñoño café"), true},
		{"empty", []byte(""), true},
		{"hex secret", []byte(strings.Repeat("0a1b", 32)), true},
		{"mnemonic", []byte("abandon ability able about above absent absorb abstract"), true},
		{"null bytes", []byte("Hello\x00World"), false},
		{"random binary data", []byte{0xFF, 0xFE, 0x00, 0x01, 0xAB, 0xCD}, false},
		{"non-UTF-8 sequences", []byte{0x80, 0x81, 0x82, 0x83, 0x84}, false},
		{"mostly control characters", []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsText(tt.content); got != tt.want {
				t.Errorf("IsText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnifiedDiffIdentical(t *testing.T) {
	if out := UnifiedDiff("seed", "seed.txt", []byte("same\n"), []byte("same\n")); out != "" {
		t.Errorf("Expected empty diff, got %q", out)
	}
	if out := UnifiedDiff("seed", "seed.txt", nil, []byte{}); out != "" {
		t.Errorf("Expected empty diff for empty inputs, got %q", out)
	}
}

func TestUnifiedDiffChangedLine(t *testing.T) {
	stored := []byte("line1\nline2\nline3\n")
	local := []byte("line1\nchanged\nline3\n")

	out := UnifiedDiff("seed", "seed.txt", stored, local)

	for _, want := range []string{"--- vault/seed\n", "+++ seed.txt\n", "@@", "-line2", "+changed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Diff should contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "-line1") || strings.Contains(out, "+line1") {
		t.Errorf("Unchanged lines should not be marked, got:\n%s", out)
	}
}

func TestUnifiedDiffBinary(t *testing.T) {
	out := UnifiedDiff("blob", "blob.bin", []byte{0x00, 0x01}, []byte{0x00, 0x02})
	if out != "Binary content of blob and blob.bin differs\n" {
		t.Errorf("Unexpected binary diff output: %q", out)
	}
}
