package console

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	TextSampleSize  = 8192 // Bytes to sample for text/binary detection
	BinaryThreshold = 10   // Max % of control characters in text
)

// IsText reports whether data looks like text: no NUL bytes, valid UTF-8
// and few control characters in the first TextSampleSize bytes.
func IsText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if bytes.IndexByte(data, 0) != -1 {
		return false
	}

	sample := data[:min(len(data), TextSampleSize)]
	if !utf8.Valid(sample) {
		return false
	}

	control := 0
	for _, b := range sample {
		if (b < 32 && b != '\t' && b != '\n' && b != '\r') || b == 127 {
			control++
		}
	}
	return control <= len(sample)*BinaryThreshold/100
}

// UnifiedDiff renders the changes from the stored secret to the local file
// as a unified diff. It returns "" when both are identical.
func UnifiedDiff(alias, path string, stored, local []byte) string {
	if crypto.ConstantTimeCompare(stored, local) {
		return ""
	}
	if !IsText(stored) || !IsText(local) {
		return fmt.Sprintf("Binary content of %s and %s differs\n", alias, path)
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for readable hunks
	storedStr, localStr := string(stored), string(local)
	a, b, lines := dmp.DiffLinesToChars(storedStr, localStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	patches := dmp.PatchMake(storedStr, diffs)
	if len(patches) == 0 {
		return ""
	}

	var result strings.Builder
	fmt.Fprintf(&result, "--- vault/%s\n", alias)
	fmt.Fprintf(&result, "+++ %s\n", path)
	result.WriteString(dmp.PatchToText(patches))
	return result.String()
}
