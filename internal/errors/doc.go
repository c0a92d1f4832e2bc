// Package errors provides typed error values for the Clerk application.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Vault state: ErrVaultNotFound, ErrVaultExists, ErrVaultLocked
//   - Authentication: ErrInvalidPassword, ErrInvalidHash
//   - Crypto: ErrDecryptFailed (never says why), ErrInvalidKeyLength
//   - Records: ErrNotFound and its typed variants, ErrConflict
//   - Credential cache: ErrNoCredential, ErrCacheUnavailable
//   - Storage: ErrStorage, ErrMigration
//
// # Usage
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("loading project %q: %w", name, errors.ErrProjectNotFound)
//
// Handle errors in the CLI layer:
//
//	err := v.Unlock(ctx, password, vault.UnlockOptions{})
//	if errors.Is(err, cerrors.ErrInvalidPassword) {
//	    // Show user-friendly message
//	}
package errors
