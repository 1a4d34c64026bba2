// Package crypto provides the cryptographic primitives used by credvault.
//
// Hashing and MACs:
//   - SHA-1, SHA-256, SHA-512 digests
//   - HMAC-SHA256
//
// Key derivation uses PBKDF2-HMAC-SHA512 with a 32-byte output. Iteration
// counts are chosen by the caller; the envelope package pins them.
//
// Symmetric encryption:
//   - AES-GCM with caller-supplied IV of any length and optional AAD
//   - AES-CBC with PKCS#7 padding
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
package crypto
