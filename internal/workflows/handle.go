package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/clerk-dev/clerk/internal/configs"
	"github.com/clerk-dev/clerk/internal/credcache"
	cerrors "github.com/clerk-dev/clerk/internal/errors"
	logger "github.com/clerk-dev/clerk/internal/logging"
	"github.com/clerk-dev/clerk/internal/secrets"
	"github.com/clerk-dev/clerk/internal/vault"
)

// PasswordFunc reads a password from the user.
type PasswordFunc func(prompt string) ([]byte, error)

// UnlockMethod records how a vault was unlocked.
type UnlockMethod string

const (
	UnlockedAlready  UnlockMethod = "already"
	UnlockedSession  UnlockMethod = "session"
	UnlockedKeychain UnlockMethod = "keychain"
	UnlockedPassword UnlockMethod = "password"
)

// HandleOptions configures OpenHandle.
type HandleOptions struct {
	// VaultDir defaults to configs.Settings.VaultDir.
	VaultDir string

	// UseSession enables the session password cache. It is forced off when
	// the user config disables sessions.
	UseSession bool

	// Prompt reads the master password. Nil makes unlocking non-interactive.
	Prompt PasswordFunc

	Logger logger.Logger

	// Config defaults to configs.DefaultUserConfig.
	Config *configs.UserConfig

	// SecureStore backs the keychain cache. Nil opens the OS keyring; if
	// that fails the keychain cache is disabled.
	SecureStore credcache.SecureStore

	// TempDir holds session files. Defaults to configs.Settings.TempDir.
	TempDir string

	// KDFParams overrides the configured profile for new vaults.
	KDFParams secrets.KDFParams
}

// Handle is an opened vault together with the caches used to unlock it.
type Handle struct {
	Vault *vault.Vault

	session    *credcache.SessionCache
	keychain   *credcache.KeychainCache
	useSession bool
	prompt     PasswordFunc
	log        logger.Logger
}

// OpenHandle prepares a vault handle. Nothing is unlocked yet.
func OpenHandle(opts HandleOptions) (*Handle, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = configs.DefaultUserConfig()
	}

	dir := opts.VaultDir
	if dir == "" {
		dir = configs.Settings.VaultDir
	}

	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = configs.Settings.TempDir
	}

	params := opts.KDFParams
	if params.IsZero() {
		p, err := cfg.KDFParams()
		if err != nil {
			return nil, err
		}
		params = p
	}

	h := &Handle{
		session:    credcache.NewSessionCache(dir, tempDir),
		useSession: opts.UseSession && cfg.Session.Enabled,
		prompt:     opts.Prompt,
		log:        opts.Logger,
	}

	store := opts.SecureStore
	if store == nil {
		ring, err := credcache.OpenKeyring(cfg.Keychain.Service)
		if err != nil {
			h.log.Debugf("Keychain unavailable: %v", err)
		} else {
			store = ring
		}
	}
	if store != nil {
		h.keychain = credcache.NewKeychainCache(store, cfg.Keychain.Account)
	}

	vopts := vault.Options{
		Logger:    opts.Logger,
		KDFParams: params,
		Session:   h.session,
	}
	// A nil *KeychainCache must not become a non-nil interface.
	if h.keychain != nil {
		vopts.Keychain = h.keychain
	}
	h.Vault = vault.New(dir, vopts)

	return h, nil
}

// Close releases the key and storage. Cached credentials are kept.
func (h *Handle) Close() error {
	return h.Vault.Close()
}

// SessionPath returns the session cache file for this vault.
func (h *Handle) SessionPath() string {
	return h.session.Path()
}

// Unlock opens the vault, trying in order the session password cache, the
// keychain key and finally the password prompt. A cached session password
// that fails verification is cleared and reported, never silently replaced
// by a prompt. A successful prompt refreshes the session cache.
func (h *Handle) Unlock(ctx context.Context, remember bool) (UnlockMethod, error) {
	if h.Vault.State() == vault.Unlocked {
		return UnlockedAlready, nil
	}
	if !h.Vault.Exists() {
		return "", cerrors.ErrVaultNotFound
	}

	if h.useSession {
		method, err := h.unlockFromSession(ctx, remember)
		if method != "" || err != nil {
			return method, err
		}
	}

	if !remember {
		method, err := h.unlockFromKeychain(ctx)
		if method != "" || err != nil {
			return method, err
		}
	}

	if h.prompt == nil {
		return "", cerrors.ErrVaultLocked
	}

	password, err := h.prompt("Enter master password: ")
	if err != nil {
		return "", err
	}
	defer secrets.Zero(password)

	if err := h.Vault.Unlock(ctx, password, vault.UnlockOptions{Remember: remember}); err != nil {
		return "", err
	}

	if h.useSession {
		if err := h.session.Store(ctx, password); err != nil {
			h.log.Warnf("Failed to save session: %v", err)
		} else {
			h.log.Infof("Session saved for this terminal")
		}
	}

	return UnlockedPassword, nil
}

// TryUnlock unlocks from caches only. It reports whether the vault is
// unlocked afterwards.
func (h *Handle) TryUnlock(ctx context.Context) bool {
	prompt := h.prompt
	h.prompt = nil
	defer func() { h.prompt = prompt }()

	_, err := h.Unlock(ctx, false)
	if err != nil && !errors.Is(err, cerrors.ErrVaultLocked) {
		h.log.Debugf("Cached unlock failed: %v", err)
	}
	return h.Vault.State() == vault.Unlocked
}

func (h *Handle) unlockFromSession(ctx context.Context, remember bool) (UnlockMethod, error) {
	password, err := h.session.Load(ctx)
	if errors.Is(err, cerrors.ErrNoCredential) {
		return "", nil
	}
	if err != nil {
		h.log.Warnf("Could not read session cache: %v", err)
		return "", nil
	}
	defer secrets.Zero(password)

	h.log.Infof("Using cached session")
	err = h.Vault.Unlock(ctx, password, vault.UnlockOptions{Remember: remember})
	if errors.Is(err, cerrors.ErrInvalidPassword) {
		return "", fmt.Errorf("cached session was rejected and has been cleared: %w", err)
	}
	if err != nil {
		return "", err
	}
	return UnlockedSession, nil
}

func (h *Handle) unlockFromKeychain(ctx context.Context) (UnlockMethod, error) {
	if h.keychain == nil {
		return "", nil
	}

	err := h.Vault.AutoUnlock(ctx)
	switch {
	case err == nil:
		h.log.Infof("Unlocked with remembered key")
		return UnlockedKeychain, nil
	case errors.Is(err, cerrors.ErrNoCredential):
		return "", nil
	case errors.Is(err, cerrors.ErrCredentialMismatch):
		h.log.WarnfAlways("Remembered key belongs to a different vault and was removed")
		return "", nil
	case errors.Is(err, cerrors.ErrMalformedCredential), errors.Is(err, cerrors.ErrCacheUnavailable):
		h.log.Warnf("Ignoring remembered key: %v", err)
		return "", nil
	default:
		return "", err
	}
}

// remembered reports whether the keychain holds the key of this vault.
func (h *Handle) remembered(ctx context.Context) bool {
	return h.Vault.Remembered(ctx)
}

// sessionActive reports whether a session password is cached for this vault.
func (h *Handle) sessionActive(ctx context.Context) bool {
	password, err := h.session.Load(ctx)
	if err != nil {
		return false
	}
	secrets.Zero(password)
	return true
}
