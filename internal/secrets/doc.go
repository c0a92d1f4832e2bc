// Package secrets provides the cryptographic primitives for Clerk.
//
// # Key Derivation
//
// Two separate Argon2id computations are used, and they are never mixed:
//
//  1. DeriveKey turns the master password and the vault's 16-byte salt into
//     the 32-byte encryption key. The key only ever lives in memory.
//  2. HashPassword produces a self-describing PHC string with its own salt.
//     It is stored in the vault metadata and used only by VerifyPassword.
//
// Default cost is 64 MiB of memory, 3 iterations and 4 lanes.
//
// # Encryption
//
// Encrypt and Decrypt use ChaCha20-Poly1305 with a fresh random 12-byte
// nonce per call. The nonce is prefixed to the output, so a stored value is:
//
//	nonce (12) || ciphertext || tag (16)
//
// Callers pass associated data that binds the ciphertext to its slot. Every
// decryption failure is reported as the same ErrDecryptFailed.
//
// # Memory Hygiene
//
// Zero wipes buffers holding keys or plaintext. LockMemory pins a key in
// RAM on unix systems and is a no-op elsewhere.
package secrets
