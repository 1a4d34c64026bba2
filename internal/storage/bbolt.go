package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	MetaBucket = []byte("meta") // format version, timestamps
	KVBucket   = []byte("kv")   // flat key/value entries
)

// Meta keys
var (
	MetaVersion  = []byte("version")
	MetaCreated  = []byte("created")
	MetaModified = []byte("modified")
)

// Entry key suffixes. An entry for alias A is stored as A:u, A:p and A:c.
const (
	SuffixUsername = ":u"
	SuffixPassword = ":p"
	SuffixCipher   = ":c"
)

var ErrNotFound = errors.New("key not found")

// Storage is a flat key/value store backed by a BBolt file
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a vault database and its buckets
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

func (s *Storage) initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{MetaBucket, KVBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		meta := tx.Bucket(MetaBucket)
		if meta.Get(MetaVersion) != nil {
			return nil
		}
		if err := meta.Put(MetaVersion, []byte("1")); err != nil {
			return err
		}
		created, _ := time.Now().MarshalBinary()
		if err := meta.Put(MetaCreated, created); err != nil {
			return err
		}
		return meta.Put(MetaModified, created)
	})
}

// touch records the modification time inside an update transaction
func touch(tx *bolt.Tx) error {
	modified, _ := time.Now().MarshalBinary()
	return tx.Bucket(MetaBucket).Put(MetaModified, modified)
}

// Get returns the value stored under key, or ErrNotFound
func (s *Storage) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(KVBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// Make a copy since the slice is only valid during the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	return value, err
}

// Put stores value under key
func (s *Storage) Put(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(KVBucket).Put([]byte(key), value); err != nil {
			return err
		}
		return touch(tx)
	})
}

// Delete removes key. Missing keys are not an error.
func (s *Storage) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(KVBucket).Delete([]byte(key)); err != nil {
			return err
		}
		return touch(tx)
	})
}

// Keys returns every stored key in byte order
func (s *Storage) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(KVBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Entry is the persisted form of one vault alias. Both byte fields are
// written by the storage cipher named in Cipher.
type Entry struct {
	Username []byte
	Password []byte
	Cipher   string
}

// PutEntry writes all three keys of alias in a single transaction
func (s *Storage) PutEntry(alias string, e Entry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		kv := tx.Bucket(KVBucket)
		pairs := []struct {
			key   string
			value []byte
		}{
			{alias + SuffixUsername, []byte(base64.StdEncoding.EncodeToString(e.Username))},
			{alias + SuffixPassword, []byte(base64.StdEncoding.EncodeToString(e.Password))},
			{alias + SuffixCipher, []byte(e.Cipher)},
		}
		for _, p := range pairs {
			if err := kv.Put([]byte(p.key), p.value); err != nil {
				return fmt.Errorf("failed to write %s: %w", p.key, err)
			}
		}
		return touch(tx)
	})
}

// GetEntry returns the entry for alias, or nil when any of its keys is
// missing.
func (s *Storage) GetEntry(alias string) (*Entry, error) {
	var entry *Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		kv := tx.Bucket(KVBucket)
		u := kv.Get([]byte(alias + SuffixUsername))
		p := kv.Get([]byte(alias + SuffixPassword))
		c := kv.Get([]byte(alias + SuffixCipher))
		if u == nil || p == nil || c == nil {
			return nil
		}

		username, err := base64.StdEncoding.DecodeString(string(u))
		if err != nil {
			return fmt.Errorf("failed to decode %s%s: %w", alias, SuffixUsername, err)
		}
		password, err := base64.StdEncoding.DecodeString(string(p))
		if err != nil {
			return fmt.Errorf("failed to decode %s%s: %w", alias, SuffixPassword, err)
		}

		entry = &Entry{Username: username, Password: password, Cipher: string(c)}
		return nil
	})
	return entry, err
}

// HasEntry reports whether alias has a complete entry
func (s *Storage) HasEntry(alias string) (bool, error) {
	e, err := s.GetEntry(alias)
	return e != nil, err
}

// DeleteEntry removes every key of alias in a single transaction
func (s *Storage) DeleteEntry(alias string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		kv := tx.Bucket(KVBucket)
		for _, suffix := range []string{SuffixUsername, SuffixPassword, SuffixCipher} {
			if err := kv.Delete([]byte(alias + suffix)); err != nil {
				return fmt.Errorf("failed to delete %s%s: %w", alias, suffix, err)
			}
		}
		return touch(tx)
	})
}

// Aliases returns every alias with a username key, sorted
func (s *Storage) Aliases() ([]string, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}

	var aliases []string
	for _, k := range keys {
		if alias, ok := strings.CutSuffix(k, SuffixUsername); ok {
			aliases = append(aliases, alias)
		}
	}
	slices.Sort(aliases)
	return aliases, nil
}

// Clear removes every key
func (s *Storage) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(KVBucket); err != nil {
			return fmt.Errorf("failed to drop bucket %s: %w", KVBucket, err)
		}
		if _, err := tx.CreateBucket(KVBucket); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", KVBucket, err)
		}
		return touch(tx)
	})
}

// Stats describes the database for status output
type Stats struct {
	Created  time.Time
	Modified time.Time
	Keys     int
	Size     int64
}

// Stats returns timestamps, key count and file size
func (s *Storage) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(MetaBucket)
		if err := st.Created.UnmarshalBinary(meta.Get(MetaCreated)); err != nil {
			return fmt.Errorf("failed to read created time: %w", err)
		}
		if err := st.Modified.UnmarshalBinary(meta.Get(MetaModified)); err != nil {
			return fmt.Errorf("failed to read modified time: %w", err)
		}
		st.Keys = tx.Bucket(KVBucket).Stats().KeyN
		st.Size = tx.Size()
		return nil
	})
	return st, err
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after purging entries to reclaim disk space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	if err := bolt.Compact(dst, s.db, 0); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	s.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
