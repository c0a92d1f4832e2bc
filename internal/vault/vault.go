package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/clerk-dev/clerk/internal/credcache"
	cerrors "github.com/clerk-dev/clerk/internal/errors"
	logger "github.com/clerk-dev/clerk/internal/logging"
	"github.com/clerk-dev/clerk/internal/secrets"
	"github.com/clerk-dev/clerk/internal/store"
)

const (
	// MinPasswordLength is the shortest accepted master password.
	MinPasswordLength = 8

	// MaxLockTimeout is the longest idle lock timeout in minutes.
	MaxLockTimeout = 1440
)

// State is the lifecycle state of a vault.
type State int

const (
	Uninitialized State = iota
	Locked
	Unlocked
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Vault.
type Options struct {
	Logger logger.Logger

	// KDFParams applies to vaults created by this handle. Zero means
	// secrets.DefaultKDFParams. Existing vaults use the parameters
	// recorded in their metadata.
	KDFParams secrets.KDFParams

	// Keychain holds the derived key when the user asks to be remembered.
	// AutoUnlock reads it and Lock clears it. May be nil.
	Keychain credcache.Cache

	// Session is cleared when a password fails verification. May be nil.
	Session credcache.Cache
}

// UnlockOptions controls Unlock.
type UnlockOptions struct {
	// Remember stores the derived key in the keychain cache.
	Remember bool
}

// Vault owns the in-memory key and the open store for one vault
// directory. Every operation holds mu for its full duration.
type Vault struct {
	mu    sync.Mutex
	dir   string
	opts  Options
	log   logger.Logger
	meta  *Metadata
	key   []byte
	store *store.Store
}

// New returns a handle for the vault in dir. Nothing is read until an
// operation runs.
func New(dir string, opts Options) *Vault {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if opts.KDFParams.IsZero() {
		opts.KDFParams = secrets.DefaultKDFParams()
	}
	return &Vault{dir: dir, opts: opts, log: opts.Logger}
}

// Dir returns the vault directory.
func (v *Vault) Dir() string {
	return v.dir
}

// Path returns the path of the vault metadata file.
func (v *Vault) Path() string {
	return metadataPath(v.dir)
}

// Exists reports whether vault metadata is present.
func (v *Vault) Exists() bool {
	return metadataExists(v.dir)
}

// State returns the current lifecycle state.
func (v *Vault) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

func (v *Vault) stateLocked() State {
	if v.key != nil && v.store != nil {
		return Unlocked
	}
	if metadataExists(v.dir) {
		return Locked
	}
	return Uninitialized
}

// Create initializes a new vault protected by password and leaves it
// unlocked. Returns ErrVaultExists if vault metadata is already present.
func (v *Vault) Create(ctx context.Context, password []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stateLocked() != Uninitialized {
		return cerrors.ErrVaultExists
	}
	if len(password) < MinPasswordLength {
		return cerrors.ErrPasswordTooShort
	}

	if err := os.MkdirAll(v.dir, 0700); err != nil {
		return fmt.Errorf("creating vault directory: %w", err)
	}

	salt, err := secrets.GenerateSalt()
	if err != nil {
		return err
	}

	hash, err := secrets.HashPasswordWithParams(password, v.opts.KDFParams)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	v.log.Debugf("Deriving vault key")
	key, err := secrets.DeriveKeyWithParams(password, salt, v.opts.KDFParams)
	if err != nil {
		return fmt.Errorf("deriving key: %w", err)
	}

	s, err := store.Open(ctx, filepath.Join(v.dir, DatabaseFileName), store.Options{Logger: v.log})
	if err != nil {
		secrets.Zero(key)
		return fmt.Errorf("initializing storage: %w", err)
	}

	if err := s.InitMetadata(ctx); err != nil {
		s.Close()
		secrets.Zero(key)
		return fmt.Errorf("initializing storage: %w", err)
	}

	meta, err := newMetadata(salt, hash, v.opts.KDFParams, key)
	if err != nil {
		s.Close()
		secrets.Zero(key)
		return err
	}
	if err := writeMetadata(v.dir, meta); err != nil {
		s.Close()
		secrets.Zero(key)
		return err
	}

	v.log.Infof("Created vault %s in %s", meta.VaultID, v.dir)
	v.setUnlocked(meta, key, s)
	return nil
}

// Unlock verifies password and opens the vault. A wrong password returns
// ErrInvalidPassword, leaves the vault locked, and clears any cached
// credentials so they cannot be replayed.
func (v *Vault) Unlock(ctx context.Context, password []byte, opts UnlockOptions) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.stateLocked() {
	case Unlocked:
		return cerrors.ErrVaultUnlocked
	case Uninitialized:
		return cerrors.ErrVaultNotFound
	}

	meta, err := loadMetadata(v.dir)
	if err != nil {
		return err
	}

	ok, err := secrets.VerifyPassword(password, meta.PasswordHash)
	if err != nil {
		return fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		v.invalidateCaches(ctx)
		return cerrors.ErrInvalidPassword
	}

	v.log.Debugf("Deriving vault key")
	key, err := secrets.DeriveKeyWithParams(password, meta.Salt, meta.KDF)
	if err != nil {
		return fmt.Errorf("deriving key: %w", err)
	}

	// Vaults created before key checks existed get one on their first
	// password unlock.
	if len(meta.KeyCheck) == 0 {
		if err := meta.sealKeyCheck(key); err != nil {
			secrets.Zero(key)
			return err
		}
		if err := replaceMetadata(v.dir, meta); err != nil {
			v.log.Warnf("Failed to record key check: %v", err)
		}
	}

	if err := v.open(ctx, meta, key); err != nil {
		return err
	}

	if opts.Remember && v.opts.Keychain != nil {
		if err := v.opts.Keychain.Store(ctx, key); err != nil {
			v.log.WarnfAlways("Could not remember vault key: %v", err)
		}
	}

	return nil
}

// AutoUnlock opens the vault with the key held in the keychain cache. It
// never prompts; ErrNoCredential is returned when nothing is cached. A
// cached key that does not match this vault's key check is removed and
// ErrCredentialMismatch is returned.
func (v *Vault) AutoUnlock(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.stateLocked() {
	case Unlocked:
		return cerrors.ErrVaultUnlocked
	case Uninitialized:
		return cerrors.ErrVaultNotFound
	}

	if v.opts.Keychain == nil {
		return cerrors.ErrNoCredential
	}

	meta, err := loadMetadata(v.dir)
	if err != nil {
		return err
	}

	key, err := v.opts.Keychain.Load(ctx)
	if err != nil {
		return err
	}

	if len(key) != secrets.KeySize {
		secrets.Zero(key)
		v.clearKeychain(ctx)
		return cerrors.ErrMalformedCredential
	}

	if len(meta.KeyCheck) == 0 {
		secrets.Zero(key)
		v.log.Warnf("Vault has no key check yet, unlock with the password once")
		return cerrors.ErrNoCredential
	}
	if !meta.keyMatches(key) {
		secrets.Zero(key)
		v.clearKeychain(ctx)
		return cerrors.ErrCredentialMismatch
	}

	return v.open(ctx, meta, key)
}

// Remembered reports whether the keychain holds the key of this vault.
func (v *Vault) Remembered(ctx context.Context) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.opts.Keychain == nil {
		return false
	}
	meta, err := loadMetadata(v.dir)
	if err != nil {
		return false
	}
	key, err := v.opts.Keychain.Load(ctx)
	if err != nil {
		return false
	}
	defer secrets.Zero(key)
	return len(key) == secrets.KeySize && meta.keyMatches(key)
}

func (v *Vault) clearKeychain(ctx context.Context) {
	if err := v.opts.Keychain.Clear(ctx); err != nil {
		v.log.Warnf("Failed to clear cached key: %v", err)
	}
}

// open finishes an unlock. It takes ownership of key.
func (v *Vault) open(ctx context.Context, meta *Metadata, key []byte) error {
	s, err := store.Open(ctx, filepath.Join(v.dir, DatabaseFileName), store.Options{Logger: v.log})
	if err != nil {
		secrets.Zero(key)
		return fmt.Errorf("opening storage: %w", err)
	}

	// Databases from older releases may lack the metadata row.
	if err := s.InitMetadata(ctx); err != nil {
		v.log.Warnf("Failed to initialize vault metadata row: %v", err)
	}
	if err := s.TouchAccessed(ctx); err != nil {
		v.log.Warnf("Failed to update last accessed time: %v", err)
	}

	v.setUnlocked(meta, key, s)
	v.log.Infof("Unlocked vault in %s", v.dir)
	return nil
}

func (v *Vault) setUnlocked(meta *Metadata, key []byte, s *store.Store) {
	if err := secrets.LockMemory(key); err != nil {
		v.log.Debugf("Could not lock key memory: %v", err)
	}
	v.meta = meta
	v.key = key
	v.store = s
}

func (v *Vault) invalidateCaches(ctx context.Context) {
	for _, c := range []credcache.Cache{v.opts.Session, v.opts.Keychain} {
		if c == nil {
			continue
		}
		if err := c.Clear(ctx); err != nil {
			v.log.Warnf("Failed to clear cached credential: %v", err)
		}
	}
}

// Lock wipes the key, closes storage, and removes the keychain entry. The
// session cache is left alone. Locking a locked vault is a no-op apart
// from the keychain removal.
func (v *Vault) Lock(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lockLocked(ctx)
}

// Close wipes the key and closes storage without touching any credential
// cache. A short-lived process calls it on exit so a remembered key
// survives for the next invocation.
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.release()
}

func (v *Vault) release() error {
	if v.key != nil {
		_ = secrets.UnlockMemory(v.key)
		secrets.Zero(v.key)
		v.key = nil
	}
	v.meta = nil

	if v.store == nil {
		return nil
	}
	err := v.store.Close()
	v.store = nil
	if err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}
	return nil
}

func (v *Vault) lockLocked(ctx context.Context) error {
	var errs []error

	if err := v.release(); err != nil {
		errs = append(errs, err)
	}

	if v.opts.Keychain != nil {
		if err := v.opts.Keychain.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clearing keychain: %w", err))
		}
	}

	return errors.Join(errs...)
}

// requireUnlocked must be called with mu held.
func (v *Vault) requireUnlocked() error {
	if v.key == nil || v.store == nil {
		return cerrors.ErrVaultLocked
	}
	return nil
}

// LockTimeout returns the idle lock timeout in minutes. 0 means disabled.
func (v *Vault) LockTimeout(ctx context.Context) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return 0, err
	}

	m, err := v.store.Metadata(ctx)
	if err != nil {
		return 0, err
	}
	return m.LockTimeoutMinutes, nil
}

// SetLockTimeout sets the idle lock timeout. minutes must be 0..1440.
func (v *Vault) SetLockTimeout(ctx context.Context, minutes int) error {
	if minutes < 0 || minutes > MaxLockTimeout {
		return cerrors.ErrInvalidLockTimeout
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return err
	}
	return v.store.SetLockTimeout(ctx, minutes)
}

// LastAccessed returns when the vault was last read or written.
func (v *Vault) LastAccessed(ctx context.Context) (time.Time, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return time.Time{}, err
	}

	m, err := v.store.Metadata(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return m.LastAccessedTime(), nil
}

// Touch records activity, pushing back the idle lock.
func (v *Vault) Touch(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return err
	}
	return v.store.TouchAccessed(ctx)
}

// LockIfIdle locks the vault when the lock timeout is set and more than
// that many minutes have passed since the last access. It reports whether
// the vault was locked. The vault never schedules this itself.
func (v *Vault) LockIfIdle(ctx context.Context, now time.Time) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.requireUnlocked() != nil {
		return false, nil
	}

	m, err := v.store.Metadata(ctx)
	if err != nil {
		return false, err
	}
	if m.LockTimeoutMinutes <= 0 {
		return false, nil
	}

	idle := now.Sub(m.LastAccessedTime())
	if idle < time.Duration(m.LockTimeoutMinutes)*time.Minute {
		return false, nil
	}

	v.log.Infof("Locking vault after %s idle", idle.Truncate(time.Second))
	return true, v.lockLocked(ctx)
}

// Status describes a vault.
type Status struct {
	State        State        `json:"-"`
	StateName    string       `json:"state"`
	Dir          string       `json:"dir"`
	VaultID      string       `json:"vault_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at,omitempty"`
	LastAccessed time.Time    `json:"last_accessed,omitempty"`
	LastModified time.Time    `json:"last_modified,omitempty"`
	LockTimeout  int          `json:"lock_timeout_minutes"`
	Counts       store.Counts `json:"counts"`
}

// Status reports the vault state. Database facts are only filled in while
// the vault is unlocked.
func (v *Vault) Status(ctx context.Context) (*Status, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := &Status{State: v.stateLocked(), Dir: v.dir}
	st.StateName = st.State.String()

	if st.State == Uninitialized {
		return st, nil
	}

	meta, err := loadMetadata(v.dir)
	if err != nil {
		return nil, err
	}
	st.VaultID = meta.VaultID
	st.CreatedAt = meta.CreatedAt

	if st.State != Unlocked {
		return st, nil
	}

	m, err := v.store.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	st.LastAccessed = time.Unix(m.LastAccessed, 0)
	st.LastModified = time.Unix(m.LastModified, 0)
	st.LockTimeout = m.LockTimeoutMinutes

	counts, err := v.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	st.Counts = counts

	return st, nil
}
