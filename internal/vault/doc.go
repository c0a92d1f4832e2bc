// Package vault implements the Clerk vault lifecycle and the secret record
// codec.
//
// # Lifecycle
//
// A vault directory moves through three states:
//
//	Uninitialized --Create--> Unlocked
//	Locked --Unlock/AutoUnlock--> Unlocked --Lock--> Locked
//
// The vault.clerk metadata file is the only signal that a vault exists. It
// holds the key derivation salt and a separate password verification hash.
// The derived key lives only in memory while unlocked and is zeroed on Lock.
//
// A Vault value guards its key and store handle with one mutex that is held
// for the whole of each operation, including decryption.
//
// # Records
//
// Every variable value is encrypted with associated data built from the
// environment id and key name (see AAD). Updating a key re-encrypts the
// value; copying to another environment decrypts and re-encrypts. Each
// create, update and delete is written to the audit log without values.
//
// # Credential Caches
//
// Options.Keychain holds the derived key after Unlock with Remember and is
// consumed by AutoUnlock. Options.Session is the CLI's password cache; the
// vault only clears it when a password fails verification.
package vault
