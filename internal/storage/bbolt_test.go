package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestDB(t *testing.T) *Storage {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.credvault"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.credvault")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	info, err := os.Stat(dbPath)
	if err != nil {
		t.Fatalf("Failed to stat database: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Permissions mismatch: got %o, want 600", perm)
	}
	if db.Path() != dbPath {
		t.Errorf("Path mismatch: got %s, want %s", db.Path(), dbPath)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.credvault")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Put("key", []byte("value")); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}
	before, err := db.Stats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	db.Close()

	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	value, err := db.Get("key")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if string(value) != "value" {
		t.Errorf("Value mismatch: got %q, want %q", value, "value")
	}

	after, err := db.Stats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if !after.Created.Equal(before.Created) {
		t.Error("Created time should survive reopen")
	}
}

func TestKeyValueOperations(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := db.Put("b", []byte("2")); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}
	if err := db.Put("a", []byte("1")); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}

	keys, err := db.Keys()
	if err != nil {
		t.Fatalf("Failed to list keys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Errorf("Keys mismatch: got %v", keys)
	}

	if err := db.Delete("a"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if err := db.Delete("a"); err != nil {
		t.Fatalf("Deleting a missing key should succeed: %v", err)
	}
	if _, err := db.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestEntryLayout(t *testing.T) {
	db := openTestDB(t)

	entry := Entry{Username: []byte{0x00, 0xff}, Password: []byte("secret"), Cipher: "AES-GCM-HW"}
	if err := db.PutEntry("wallet", entry); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}

	raw := map[string]string{
		"wallet:u": "AP8=",
		"wallet:p": "c2VjcmV0",
		"wallet:c": "AES-GCM-HW",
	}
	for key, want := range raw {
		got, err := db.Get(key)
		if err != nil {
			t.Fatalf("Failed to get %s: %v", key, err)
		}
		if string(got) != want {
			t.Errorf("%s mismatch: got %q, want %q", key, got, want)
		}
	}

	loaded, err := db.GetEntry("wallet")
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if loaded == nil {
		t.Fatal("Entry should not be nil")
	}
	if !reflect.DeepEqual(*loaded, entry) {
		t.Errorf("Entry mismatch: got %+v, want %+v", *loaded, entry)
	}
}

func TestPartialEntryIsAbsent(t *testing.T) {
	db := openTestDB(t)

	if err := db.PutEntry("wallet", Entry{Username: []byte("u"), Password: []byte("p"), Cipher: "AES-CBC-HW"}); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}
	if err := db.Delete("wallet:c"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	entry, err := db.GetEntry("wallet")
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if entry != nil {
		t.Error("Entry with a missing key should be nil")
	}

	ok, err := db.HasEntry("wallet")
	if err != nil {
		t.Fatalf("Failed to check entry: %v", err)
	}
	if ok {
		t.Error("HasEntry should be false for a partial entry")
	}
}

func TestCorruptEntry(t *testing.T) {
	db := openTestDB(t)

	if err := db.PutEntry("wallet", Entry{Username: []byte("u"), Password: []byte("p"), Cipher: "AES-GCM-HW"}); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}
	if err := db.Put("wallet:p", []byte("not base64!")); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}

	if _, err := db.GetEntry("wallet"); err == nil {
		t.Error("Expected error for corrupt entry")
	}
}

func TestDeleteEntryAndAliases(t *testing.T) {
	db := openTestDB(t)

	for _, alias := range []string{"zeta", "alpha", "alpha_RECOVER"} {
		if err := db.PutEntry(alias, Entry{Username: []byte("u"), Password: []byte("p"), Cipher: "AES-GCM-HW"}); err != nil {
			t.Fatalf("Failed to put entry %s: %v", alias, err)
		}
	}
	if err := db.Put("unrelated", []byte("x")); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}

	aliases, err := db.Aliases()
	if err != nil {
		t.Fatalf("Failed to list aliases: %v", err)
	}
	if !reflect.DeepEqual(aliases, []string{"alpha", "alpha_RECOVER", "zeta"}) {
		t.Errorf("Aliases mismatch: got %v", aliases)
	}

	if err := db.DeleteEntry("alpha"); err != nil {
		t.Fatalf("Failed to delete entry: %v", err)
	}
	for _, key := range []string{"alpha:u", "alpha:p", "alpha:c"} {
		if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s should be gone, got %v", key, err)
		}
	}

	aliases, err = db.Aliases()
	if err != nil {
		t.Fatalf("Failed to list aliases: %v", err)
	}
	if !reflect.DeepEqual(aliases, []string{"alpha_RECOVER", "zeta"}) {
		t.Errorf("Aliases mismatch after delete: got %v", aliases)
	}
}

func TestClear(t *testing.T) {
	db := openTestDB(t)

	if err := db.PutEntry("wallet", Entry{Username: []byte("u"), Password: []byte("p"), Cipher: "AES-GCM-HW"}); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}
	if err := db.Clear(); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}

	keys, err := db.Keys()
	if err != nil {
		t.Fatalf("Failed to list keys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Expected no keys after clear, got %v", keys)
	}

	// The store stays usable.
	if err := db.Put("after", []byte("x")); err != nil {
		t.Fatalf("Failed to put after clear: %v", err)
	}
}

func TestCompact(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.credvault")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	big := make([]byte, 64*1024)
	for i := 0; i < 20; i++ {
		if err := db.Put(string(rune('a'+i)), big); err != nil {
			t.Fatalf("Failed to put: %v", err)
		}
	}
	if err := db.PutEntry("keep", Entry{Username: []byte("u"), Password: []byte("p"), Cipher: "AES-GCM-HW"}); err != nil {
		t.Fatalf("Failed to put entry: %v", err)
	}
	for i := 0; i < 20; i++ {
		if err := db.Delete(string(rune('a' + i))); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
	}

	before, err := os.Stat(dbPath)
	if err != nil {
		t.Fatalf("Failed to stat: %v", err)
	}
	if err := db.Compact(); err != nil {
		t.Fatalf("Failed to compact: %v", err)
	}
	after, err := os.Stat(dbPath)
	if err != nil {
		t.Fatalf("Failed to stat: %v", err)
	}
	if after.Size() >= before.Size() {
		t.Errorf("Compact should shrink the file: before %d, after %d", before.Size(), after.Size())
	}

	entry, err := db.GetEntry("keep")
	if err != nil {
		t.Fatalf("Failed to get entry after compact: %v", err)
	}
	if entry == nil || entry.Cipher != "AES-GCM-HW" {
		t.Errorf("Entry lost during compact: %+v", entry)
	}
	if _, err := os.Stat(dbPath + ".backup"); !os.IsNotExist(err) {
		t.Error("Backup file should be removed")
	}
}
