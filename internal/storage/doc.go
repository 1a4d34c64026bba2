// Package storage provides the BBolt-backed flat key/value store that holds
// vault entries.
//
// Database structure uses two buckets:
//   - meta: format version and timestamps
//   - kv: flat string keys. Alias A is stored as A:u and A:p (base64 of the
//     outer-encrypted fields) plus A:c (the storage cipher tag).
//
// Entry writes and deletes touch all three keys in one transaction, so an
// alias is never observed half written.
package storage
