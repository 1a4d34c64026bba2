// Package keystore hands out non-extractable symmetric keys bound to an alias.
//
// Keys live in a Backend:
//   - secure element: device-only keychain items (darwin), tried first
//   - standard: the OS keyring
//   - memory: process-local, for tests
//
// The tier that accepted the first generated key is remembered for the life
// of the KeyStore, so a missing secure element is probed only once. Loaded
// keys are sealed in memguard enclaves and only reach a block cipher inside
// Key.Use.
package keystore
