package credcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/secrets"
)

const sessionFilePrefix = ".clerk_session-"

// SessionCache keeps the master password for one vault in a file in the
// temp directory so repeated CLI invocations from a shell can skip the
// prompt. The file holds "password|vault_path" in cleartext, readable only
// by the current user. It is a convenience for non-interactive shells and
// is weaker than KeychainCache.
type SessionCache struct {
	vaultDir string
	path     string
}

// NewSessionCache returns the session cache for vaultDir. tempDir defaults
// to os.TempDir().
func NewSessionCache(vaultDir, tempDir string) *SessionCache {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if abs, err := filepath.Abs(vaultDir); err == nil {
		vaultDir = abs
	}
	return &SessionCache{
		vaultDir: filepath.Clean(vaultDir),
		path:     filepath.Join(tempDir, sessionFilePrefix+VaultHash(vaultDir)),
	}
}

// Path returns the session file location.
func (s *SessionCache) Path() string {
	return s.path
}

// Load returns the cached password. A missing file reports
// ErrNoCredential. So does a file that is malformed, written for a
// different vault, not a regular file, or readable by anyone but the
// current user; such a file is removed without being read.
func (s *SessionCache) Load(_ context.Context) ([]byte, error) {
	info, err := os.Lstat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, cerrors.ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading session: %v", cerrors.ErrCacheUnavailable, err)
	}
	if !info.Mode().IsRegular() || !private(info) {
		s.discard()
		return nil, cerrors.ErrNoCredential
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, cerrors.ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading session: %v", cerrors.ErrCacheUnavailable, err)
	}
	defer secrets.Zero(data)

	// The vault path is known, so the password is whatever precedes
	// "|<vault path>". Either side may contain '|'.
	suffix := []byte("|" + s.vaultDir)
	n := len(data) - len(suffix)
	if n <= 0 || !bytes.HasSuffix(data, suffix) {
		s.discard()
		return nil, cerrors.ErrNoCredential
	}

	password := make([]byte, n)
	copy(password, data[:n])
	return password, nil
}

// Store writes password to the session file. The content goes to a new
// 0600 file created next to the target and is renamed into place, so a
// symlink or a foreign file already at the path never receives it.
func (s *SessionCache) Store(_ context.Context, password []byte) error {
	content := make([]byte, 0, len(password)+1+len(s.vaultDir))
	content = append(content, password...)
	content = append(content, '|')
	content = append(content, s.vaultDir...)
	defer secrets.Zero(content)

	tmp, err := os.CreateTemp(filepath.Dir(s.path), sessionFilePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("%w: writing session: %v", cerrors.ErrCacheUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil && runtime.GOOS != "windows" {
		tmp.Close()
		return fmt.Errorf("%w: securing session: %v", cerrors.ErrCacheUnavailable, err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing session: %v", cerrors.ErrCacheUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: writing session: %v", cerrors.ErrCacheUnavailable, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: writing session: %v", cerrors.ErrCacheUnavailable, err)
	}
	return nil
}

func (s *SessionCache) discard() {
	_ = os.Remove(s.path)
}

// Clear removes the session file. A missing file is not an error.
func (s *SessionCache) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: removing session: %v", cerrors.ErrCacheUnavailable, err)
}
