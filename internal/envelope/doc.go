// Package envelope implements the versioned passphrase cipher that turns a
// secret into an encrypted envelope plus public DerivedKeys.
//
// Versions:
//   - 1: SHA-256(passphrase) as an AES-CBC key, bare hex IV. Decrypt only.
//   - 2: PBKDF2-HMAC-SHA512 derivation chain bound to the device identity,
//     AES-GCM with the device identity as associated data. Current.
//
// Encrypt always writes LatestVersion; Decrypt dispatches on the version
// recorded in DerivedKeys, so entries written by older versions stay
// readable until they are migrated.
package envelope
