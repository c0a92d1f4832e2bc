package credcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// Cache stores one credential for one vault so a later unlock can skip the
// password prompt. Load returns errors.ErrNoCredential when nothing is
// cached; that is a normal state, not a failure.
type Cache interface {
	Load(ctx context.Context) ([]byte, error)
	Store(ctx context.Context, secret []byte) error
	Clear(ctx context.Context) error
}

// VaultHash returns a stable, collision resistant identifier for a vault
// directory. The path is cleaned and made absolute first.
func VaultHash(vaultDir string) string {
	dir := vaultDir
	if abs, err := filepath.Abs(vaultDir); err == nil {
		dir = abs
	}
	sum := sha256.Sum256([]byte(filepath.Clean(dir)))
	return hex.EncodeToString(sum[:8])
}
