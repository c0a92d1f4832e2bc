package vault

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/secrets"
	"github.com/google/uuid"
)

const (
	// MetadataFileName is the vault metadata file. Its presence is the only
	// signal that a vault exists in a directory.
	MetadataFileName = "vault.clerk"

	// DatabaseFileName is the encrypted record database.
	DatabaseFileName = "vault.db"

	metadataVersion = 1

	keyCheckValue = "clerk-key-check"
)

// Metadata is the content of vault.clerk.
type Metadata struct {
	Version      int               `json:"version"`
	VaultID      string            `json:"vault_id"`
	Salt         []byte            `json:"salt"`
	PasswordHash string            `json:"password_hash"`
	KDF          secrets.KDFParams `json:"kdf"`
	CreatedAt    time.Time         `json:"created_at"`

	// KeyCheck is a constant sealed under the derived key with the vault id
	// as associated data. It lets a cached key be checked without the
	// password.
	KeyCheck []byte `json:"key_check,omitempty"`
}

func newMetadata(salt []byte, hash string, params secrets.KDFParams, key []byte) (*Metadata, error) {
	m := &Metadata{
		Version:      metadataVersion,
		VaultID:      uuid.New().String(),
		Salt:         salt,
		PasswordHash: hash,
		KDF:          params,
		CreatedAt:    time.Now().UTC(),
	}
	if err := m.sealKeyCheck(key); err != nil {
		return nil, err
	}
	return m, nil
}

func keyCheckAAD(vaultID string) []byte {
	return []byte("vault:" + vaultID)
}

func (m *Metadata) sealKeyCheck(key []byte) error {
	check, err := secrets.Encrypt(key, []byte(keyCheckValue), keyCheckAAD(m.VaultID))
	if err != nil {
		return fmt.Errorf("sealing key check: %w", err)
	}
	m.KeyCheck = check
	return nil
}

// keyMatches reports whether key is the key this vault was created with.
func (m *Metadata) keyMatches(key []byte) bool {
	plain, err := secrets.Decrypt(key, m.KeyCheck, keyCheckAAD(m.VaultID))
	if err != nil {
		return false
	}
	defer secrets.Zero(plain)
	return subtle.ConstantTimeCompare(plain, []byte(keyCheckValue)) == 1
}

func metadataPath(dir string) string {
	return filepath.Join(dir, MetadataFileName)
}

func metadataExists(dir string) bool {
	_, err := os.Stat(metadataPath(dir))
	return err == nil
}

// loadMetadata reads vault.clerk. Returns ErrVaultNotFound if it is missing.
func loadMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(metadataPath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, cerrors.ErrVaultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading vault metadata: %w", err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing vault metadata: %w", err)
	}

	if len(m.Salt) != secrets.SaltSize {
		return nil, fmt.Errorf("vault metadata has a %d byte salt, want %d", len(m.Salt), secrets.SaltSize)
	}
	// Vaults written before parameters were recorded used the defaults.
	if m.KDF.IsZero() {
		m.KDF = secrets.DefaultKDFParams()
	}

	return &m, nil
}

// writeMetadata creates vault.clerk. It never overwrites an existing file.
func writeMetadata(dir string, m *Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding vault metadata: %w", err)
	}

	f, err := os.OpenFile(metadataPath(dir), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return cerrors.ErrVaultExists
	}
	if err != nil {
		return fmt.Errorf("creating vault metadata: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing vault metadata: %w", err)
	}
	return f.Close()
}

// replaceMetadata rewrites an existing vault.clerk through a temporary file
// and a rename, so a crash never leaves a truncated file behind.
func replaceMetadata(dir string, m *Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding vault metadata: %w", err)
	}

	tmp, err := os.CreateTemp(dir, MetadataFileName+".*")
	if err != nil {
		return fmt.Errorf("creating vault metadata: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing vault metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing vault metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), metadataPath(dir)); err != nil {
		return fmt.Errorf("replacing vault metadata: %w", err)
	}
	return nil
}
