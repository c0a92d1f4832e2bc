// Package credcache caches vault credentials between unlocks.
//
// Two independent implementations of Cache exist:
//
//   - KeychainCache stores the derived key in the OS credential store
//     (macOS Keychain, Secret Service, KWallet, Windows Credential Manager)
//     under service "com.clerk.app", account "clerk_user". It is only
//     written when the user asks to be remembered.
//   - SessionCache stores the master password in a 0600 file named after a
//     hash of the vault directory in the temp directory. It serves CLI use
//     from one terminal and stores the password in cleartext. The file
//     is replaced by rename, never written through, and a file that is
//     not a private regular file of the current user is ignored.
//
// Absence is always reported as errors.ErrNoCredential so callers can
// fall back to prompting.
package credcache
