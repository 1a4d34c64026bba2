package vault

import (
	"errors"
	"fmt"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/deviceid"
	"github.com/illarion/credvault/internal/envelope"
	"github.com/illarion/credvault/internal/keystore"
	"github.com/illarion/credvault/internal/storage"
	"github.com/illarion/credvault/internal/storagecipher"
	"go.uber.org/zap"
)

// RecoverySuffix names the temporary entry that holds a copy of a vault
// while it is being re-keyed.
const RecoverySuffix = "_RECOVER"

// DefaultSecretLength is the size in bytes of a provisioned random secret
const DefaultSecretLength = 64

// RecoveryAlias returns the recovery entry name for alias
func RecoveryAlias(alias string) string {
	return alias + RecoverySuffix
}

// Vault stores passphrase-encrypted secrets under caller-chosen aliases.
// Each entry is sealed twice: by the envelope cipher under the passphrase
// and device identity, then by a storage cipher under a per-alias hardware
// key.
type Vault struct {
	store    *storage.Storage
	keys     *keystore.KeyStore
	envelope *envelope.Cipher
	log      *zap.Logger
	locks    aliasLocks
}

// Option configures a Vault
type Option func(*Vault)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(v *Vault) { v.log = l }
}

// New creates a Vault over store, keeping hardware keys in keys and binding
// envelopes to device.
func New(store *storage.Storage, keys *keystore.KeyStore, device deviceid.Source, opts ...Option) *Vault {
	v := &Vault{
		store:    store,
		keys:     keys,
		envelope: envelope.New(device),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MigrationStatus reports whether an entry was written by an older cipher
type MigrationStatus struct {
	Alias          string
	CurrentVersion int
	LatestVersion  int
	StorageCipher  storagecipher.Name
	// Required is true when the envelope version is older than the latest.
	Required bool
	// RawSecret marks an entry written by GetOrCreateRandomSecret. It has no
	// envelope, so CurrentVersion is zero and Required is always false.
	RawSecret bool
}

// Outdated is true when Migrate would rewrite the entry
func (s MigrationStatus) Outdated() bool {
	return s.Required || s.StorageCipher != storagecipher.Latest
}

// Exists reports whether alias has a stored entry
func (v *Vault) Exists(alias string) (bool, error) {
	if err := validateAlias(alias); err != nil {
		return false, wrap("exists", alias, err)
	}
	ok, err := v.store.HasEntry(alias)
	if err != nil {
		return false, wrap("exists", alias, storageError(err))
	}
	return ok, nil
}

// Aliases returns every stored alias, recovery entries included
func (v *Vault) Aliases() ([]string, error) {
	aliases, err := v.store.Aliases()
	if err != nil {
		return nil, wrap("list", "", storageError(err))
	}
	return aliases, nil
}

// Create encrypts data under passphrase and stores it as alias. It never
// overwrites an existing entry. The new entry is opened once before Create
// returns; if that fails the entry is removed again.
func (v *Vault) Create(alias string, data []byte, passphrase string) error {
	if err := validateAlias(alias); err != nil {
		return wrap("create", alias, err)
	}
	unlock := v.locks.lock(alias)
	defer unlock()

	return wrap("create", alias, v.create(alias, data, passphrase))
}

// Open decrypts the entry stored as alias
func (v *Vault) Open(alias, passphrase string) ([]byte, error) {
	if err := validateAlias(alias); err != nil {
		return nil, wrap("open", alias, err)
	}
	unlock := v.locks.lock(alias)
	defer unlock()

	plaintext, err := v.open(alias, passphrase)
	if err != nil {
		return nil, wrap("open", alias, err)
	}
	return plaintext, nil
}

// OpenRecoverable is Open, falling back to the recovery entry left behind
// by an interrupted re-key. A recovered vault is stored under alias again
// and the recovery entry is removed.
func (v *Vault) OpenRecoverable(alias, passphrase string) ([]byte, error) {
	if err := validateAlias(alias); err != nil {
		return nil, wrap("open", alias, err)
	}
	recovery := RecoveryAlias(alias)
	unlock := v.locks.lock(alias, recovery)
	defer unlock()

	exists, err := v.store.HasEntry(alias)
	if err != nil {
		return nil, wrap("open", alias, storageError(err))
	}
	if exists {
		plaintext, err := v.open(alias, passphrase)
		if err != nil {
			return nil, wrap("open", alias, err)
		}
		return plaintext, nil
	}

	plaintext, err := v.open(recovery, passphrase)
	if err != nil {
		return nil, wrap("open", alias, err)
	}

	v.log.Info("recovering vault", zap.String("alias", alias))
	if err := v.create(alias, plaintext, passphrase); err != nil {
		v.log.Warn("failed to restore recovered vault", zap.String("alias", alias), zap.Error(err))
		return plaintext, nil
	}
	if err := v.purge(recovery); err != nil {
		v.log.Warn("failed to purge recovery vault", zap.String("alias", recovery), zap.Error(err))
	}
	return plaintext, nil
}

// MigrationRequired compares the envelope version of alias with the latest
// one. No passphrase is needed.
func (v *Vault) MigrationRequired(alias string) (MigrationStatus, error) {
	if err := validateAlias(alias); err != nil {
		return MigrationStatus{}, wrap("migration check", alias, err)
	}
	unlock := v.locks.lock(alias)
	defer unlock()

	status, err := v.migrationStatus(alias)
	if err != nil {
		return MigrationStatus{}, wrap("migration check", alias, err)
	}
	return status, nil
}

// Migrate rewrites alias with the latest envelope version and storage
// cipher. It returns false without touching the entry when nothing is
// outdated. Raw secrets only change storage cipher and ignore passphrase.
func (v *Vault) Migrate(alias, passphrase string) (bool, error) {
	if err := validateAlias(alias); err != nil {
		return false, wrap("migrate", alias, err)
	}
	unlock := v.locks.lock(alias)
	defer unlock()

	status, err := v.migrationStatus(alias)
	if err != nil {
		return false, wrap("migrate", alias, err)
	}
	if !status.Outdated() {
		return false, nil
	}

	if status.RawSecret {
		err = v.rewriteRaw(alias)
	} else {
		err = v.reseal(alias, passphrase)
	}
	if err != nil {
		return false, wrap("migrate", alias, err)
	}

	if status.StorageCipher != storagecipher.Latest {
		if err := v.removeKey(status.StorageCipher, alias); err != nil {
			v.log.Warn("failed to remove obsolete storage key",
				zap.String("alias", alias), zap.String("cipher", string(status.StorageCipher)), zap.Error(err))
		}
	}

	v.log.Info("vault migrated",
		zap.String("alias", alias),
		zap.Int("from_version", status.CurrentVersion),
		zap.String("from_cipher", string(status.StorageCipher)))
	return true, nil
}

// ReKey re-encrypts alias under newPassphrase. A recovery entry under the
// old passphrase exists while the main entry is replaced.
func (v *Vault) ReKey(alias, oldPassphrase, newPassphrase string) error {
	return v.ReKeyBatch([]string{alias}, oldPassphrase, newPassphrase)
}

// ReKeyBatch re-encrypts every alias under newPassphrase. All entries are
// opened before any is modified, so a wrong passphrase changes nothing.
func (v *Vault) ReKeyBatch(aliases []string, oldPassphrase, newPassphrase string) error {
	if len(aliases) == 0 {
		return wrap("rekey", "", fmt.Errorf("%w: no aliases", ErrInvalidArgument))
	}

	all := make([]string, 0, 2*len(aliases))
	for _, alias := range aliases {
		if err := validateAlias(alias); err != nil {
			return wrap("rekey", alias, err)
		}
		all = append(all, alias, RecoveryAlias(alias))
	}
	unlock := v.locks.lock(all...)
	defer unlock()

	plaintexts := make(map[string][]byte, len(aliases))
	defer func() {
		for _, p := range plaintexts {
			crypto.ClearBytes(p)
		}
	}()

	for _, alias := range aliases {
		if _, ok := plaintexts[alias]; ok {
			continue
		}
		plaintext, err := v.open(alias, oldPassphrase)
		if err != nil {
			return wrap("rekey", alias, err)
		}
		plaintexts[alias] = plaintext
	}

	for alias, plaintext := range plaintexts {
		recovery := RecoveryAlias(alias)
		// The main entry opened, so a stale recovery entry is safe to drop.
		if err := v.purge(recovery); err != nil {
			return wrap("rekey", alias, err)
		}
		if err := v.create(recovery, plaintext, oldPassphrase); err != nil {
			return wrap("rekey", alias, err)
		}
	}

	for alias, plaintext := range plaintexts {
		if err := v.purge(alias); err != nil {
			return wrap("rekey", alias, err)
		}
		if err := v.create(alias, plaintext, newPassphrase); err != nil {
			return wrap("rekey", alias, err)
		}
	}

	var errs []error
	for alias := range plaintexts {
		if err := v.purge(RecoveryAlias(alias)); err != nil {
			errs = append(errs, wrap("rekey", alias, err))
		}
	}

	v.log.Info("vaults re-keyed", zap.Int("count", len(plaintexts)))
	return errors.Join(errs...)
}

// Delete removes alias and its hardware keys. Deleting a missing alias
// succeeds. The device identity is not needed.
func (v *Vault) Delete(alias string) error {
	if err := validateAlias(alias); err != nil {
		return wrap("delete", alias, err)
	}
	unlock := v.locks.lock(alias)
	defer unlock()

	if err := v.purge(alias); err != nil {
		return wrap("delete", alias, err)
	}
	v.log.Info("vault deleted", zap.String("alias", alias))
	return nil
}

// DeleteAll removes every entry. Hardware keys are removed first; an entry
// whose keys could not be removed is kept and reported, and the remaining
// entries are still processed.
func (v *Vault) DeleteAll() error {
	aliases, err := v.store.Aliases()
	if err != nil {
		return wrap("delete all", "", storageError(err))
	}

	var errs []error
	for _, alias := range aliases {
		unlock := v.locks.lock(alias)
		if err := v.purge(alias); err != nil {
			errs = append(errs, wrap("delete all", alias, err))
		}
		unlock()
	}

	if len(errs) > 0 {
		v.log.Warn("vault purge incomplete", zap.Int("failed", len(errs)), zap.Int("total", len(aliases)))
		return errors.Join(errs...)
	}

	if err := v.store.Clear(); err != nil {
		return wrap("delete all", "", storageError(err))
	}
	v.log.Info("all vaults deleted", zap.Int("count", len(aliases)))
	return nil
}

// GetOrCreateRandomSecret returns the secret stored as alias, generating
// length random bytes and storing them hex encoded when alias is absent.
// The secret is protected by the storage cipher only.
func (v *Vault) GetOrCreateRandomSecret(alias string, length int) (string, error) {
	if err := validateAlias(alias); err != nil {
		return "", wrap("storage key", alias, err)
	}
	if length <= 0 {
		return "", wrap("storage key", alias, fmt.Errorf("%w: length %d", ErrInvalidArgument, length))
	}
	unlock := v.locks.lock(alias)
	defer unlock()

	fields, _, err := v.read(alias)
	if err == nil {
		return fields.FieldB, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", wrap("storage key", alias, err)
	}

	raw, err := crypto.RandomBytes(length)
	if err != nil {
		return "", wrap("storage key", alias, err)
	}
	secret := crypto.BytesToHex(raw)
	crypto.ClearBytes(raw)

	if err := v.write(alias, "", secret, storagecipher.Latest); err != nil {
		return "", wrap("storage key", alias, err)
	}
	v.log.Info("storage key generated", zap.String("alias", alias), zap.Int("bytes", length))
	return secret, nil
}

// reseal re-encrypts an envelope entry with the latest ciphers
func (v *Vault) reseal(alias, passphrase string) error {
	plaintext, err := v.open(alias, passphrase)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(plaintext)

	if err := v.seal(alias, plaintext, passphrase); err != nil {
		return err
	}
	return v.verify(alias, plaintext, passphrase)
}

// rewriteRaw moves a raw secret to the latest storage cipher. No passphrase
// is involved.
func (v *Vault) rewriteRaw(alias string) error {
	fields, _, err := v.read(alias)
	if err != nil {
		return err
	}
	if err := v.write(alias, "", fields.FieldB, storagecipher.Latest); err != nil {
		return err
	}

	stored, _, err := v.read(alias)
	if err != nil {
		return err
	}
	if stored.FieldA != "" || !crypto.ConstantTimeCompare([]byte(stored.FieldB), []byte(fields.FieldB)) {
		return fmt.Errorf("%w: %w", ErrWrongPassphraseOrCorruptData, errVerification)
	}
	return nil
}

func (v *Vault) create(alias string, data []byte, passphrase string) error {
	exists, err := v.store.HasEntry(alias)
	if err != nil {
		return storageError(err)
	}
	if exists {
		return ErrAlreadyExists
	}

	if err := v.seal(alias, data, passphrase); err != nil {
		return err
	}

	if err := v.verify(alias, data, passphrase); err != nil {
		if perr := v.purge(alias); perr != nil {
			v.log.Warn("failed to remove unverified vault", zap.String("alias", alias), zap.Error(perr))
		}
		return err
	}

	v.log.Info("vault created", zap.String("alias", alias), zap.Int("version", envelope.LatestVersion))
	return nil
}

// seal encrypts data with the latest envelope and storage cipher and
// replaces whatever is stored as alias.
func (v *Vault) seal(alias string, data []byte, passphrase string) error {
	ciphertext, keys, err := v.envelope.Encrypt(data, passphrase)
	if err != nil {
		return err
	}
	return v.write(alias, keys.String(), envelope.EncodeCiphertext(keys.Version, ciphertext), storagecipher.Latest)
}

func (v *Vault) verify(alias string, data []byte, passphrase string) error {
	stored, err := v.open(alias, passphrase)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(stored)

	if !crypto.ConstantTimeCompare(stored, data) {
		return fmt.Errorf("%w: %w", ErrWrongPassphraseOrCorruptData, errVerification)
	}
	return nil
}

func (v *Vault) open(alias, passphrase string) ([]byte, error) {
	fields, _, err := v.read(alias)
	if err != nil {
		return nil, err
	}

	keys, err := envelope.ParseDerivedKeys(fields.FieldA)
	if err != nil {
		return nil, err
	}
	ciphertext, err := envelope.DecodeCiphertext(keys.Version, fields.FieldB)
	if err != nil {
		return nil, err
	}
	return v.envelope.Decrypt(ciphertext, passphrase, keys)
}

func (v *Vault) migrationStatus(alias string) (MigrationStatus, error) {
	fields, name, err := v.read(alias)
	if err != nil {
		return MigrationStatus{}, err
	}
	if fields.FieldA == "" {
		return MigrationStatus{
			Alias:         alias,
			LatestVersion: envelope.LatestVersion,
			StorageCipher: name,
			RawSecret:     true,
		}, nil
	}
	keys, err := envelope.ParseDerivedKeys(fields.FieldA)
	if err != nil {
		return MigrationStatus{}, err
	}

	return MigrationStatus{
		Alias:          alias,
		CurrentVersion: keys.Version,
		LatestVersion:  envelope.LatestVersion,
		StorageCipher:  name,
		Required:       keys.Version < envelope.LatestVersion,
	}, nil
}

// read loads alias and removes the storage cipher layer
func (v *Vault) read(alias string) (storagecipher.DecryptionResult, storagecipher.Name, error) {
	entry, err := v.store.GetEntry(alias)
	if err != nil {
		return storagecipher.DecryptionResult{}, "", storageError(err)
	}
	if entry == nil {
		return storagecipher.DecryptionResult{}, "", ErrNotFound
	}

	name, err := storagecipher.ParseName(entry.Cipher)
	if err != nil {
		return storagecipher.DecryptionResult{}, "", err
	}
	c, err := storagecipher.New(name, v.keys)
	if err != nil {
		return storagecipher.DecryptionResult{}, "", err
	}

	fields, err := c.Decrypt(alias, entry.Username, entry.Password)
	if err != nil {
		return storagecipher.DecryptionResult{}, "", err
	}
	return fields, name, nil
}

// write applies the storage cipher and stores both fields as alias. When
// the entry cannot be stored and alias had no entry before, the hardware key
// generated for it is removed again.
func (v *Vault) write(alias, fieldA, fieldB string, name storagecipher.Name) error {
	existed, err := v.store.HasEntry(alias)
	if err != nil {
		return storageError(err)
	}

	c, err := storagecipher.New(name, v.keys)
	if err != nil {
		return err
	}
	result, err := c.Encrypt(alias, fieldA, fieldB)
	if err != nil {
		return err
	}

	err = v.store.PutEntry(alias, storage.Entry{
		Username: result.FieldA,
		Password: result.FieldB,
		Cipher:   string(result.CipherName),
	})
	if err != nil {
		if !existed {
			if kerr := c.RemoveKey(alias); kerr != nil {
				v.log.Warn("failed to remove unused storage key", zap.String("alias", alias), zap.Error(kerr))
			}
		}
		return storageError(err)
	}
	return nil
}

// purge removes the hardware keys of every storage cipher for alias, then
// the entry. The entry is kept when a key cannot be removed.
func (v *Vault) purge(alias string) error {
	var errs []error
	for _, name := range storagecipher.Names {
		if err := v.removeKey(name, alias); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if err := v.store.DeleteEntry(alias); err != nil {
		return storageError(err)
	}
	return nil
}

func (v *Vault) removeKey(name storagecipher.Name, alias string) error {
	c, err := storagecipher.New(name, v.keys)
	if err != nil {
		return err
	}
	return c.RemoveKey(alias)
}

func validateAlias(alias string) error {
	if alias == "" {
		return fmt.Errorf("%w: empty alias", ErrInvalidArgument)
	}
	return nil
}
