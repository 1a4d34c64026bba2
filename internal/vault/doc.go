// Package vault stores secrets under caller-chosen aliases, each sealed by
// a passphrase and bound to the current device.
//
// Per alias the vault moves through three states:
//
//	absent  --Create-->  present(latest)
//	present(v)  --Migrate, when v is outdated-->  present(latest)
//	present  --Delete-->  absent
//
// Open reads the entry from storage, removes the hardware-keyed storage
// cipher layer, parses the stored DerivedKeys and decrypts the envelope.
// Create runs the same steps in reverse and then opens the result once to
// verify it.
//
// Operations on the same alias are serialised inside one Vault. BBolt holds
// an exclusive file lock while the database is open, so only one process
// can use it at a time.
package vault
