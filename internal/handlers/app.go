package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clerk-dev/clerk/internal/configs"
	"github.com/clerk-dev/clerk/internal/credcache"
	cerrors "github.com/clerk-dev/clerk/internal/errors"
	logger "github.com/clerk-dev/clerk/internal/logging"
	"github.com/clerk-dev/clerk/internal/secrets"
	"github.com/clerk-dev/clerk/internal/vault"
	"github.com/clerk-dev/clerk/internal/workflows"
	"github.com/robfig/cron/v3"
)

// Options configures New.
type Options struct {
	VaultDir    string
	Config      *configs.UserConfig
	SecureStore credcache.SecureStore
	KDFParams   secrets.KDFParams
	Logger      logger.Logger
}

// App serves the GUI. It keeps one vault open for the life of the process
// and never prompts: passwords arrive as handler arguments.
type App struct {
	handle *workflows.Handle
	vault  *vault.Vault
	log    logger.Logger

	pollInterval time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

// New opens the vault handle used by the GUI. The session cache is
// never used here.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = configs.DefaultUserConfig()
	}

	poll, err := cfg.PollInterval()
	if err != nil {
		return nil, err
	}

	h, err := workflows.OpenHandle(workflows.HandleOptions{
		VaultDir:    opts.VaultDir,
		Config:      cfg,
		SecureStore: opts.SecureStore,
		KDFParams:   opts.KDFParams,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		handle:       h,
		vault:        h.Vault,
		log:          opts.Logger,
		pollInterval: poll,
	}, nil
}

// Close stops the idle lock job and releases the vault. A remembered key
// stays in the keychain for the next AutoUnlock.
func (a *App) Close() error {
	a.StopIdleLock()
	return a.handle.Close()
}

func (a *App) requireUnlocked() error {
	if a.vault.State() != vault.Unlocked {
		return cerrors.ErrVaultLocked
	}
	return nil
}

// CheckVaultExists reports whether a vault has been created.
func (a *App) CheckVaultExists() Response {
	return ok("", a.vault.Exists())
}

// CreateVault creates the vault and leaves it unlocked.
func (a *App) CreateVault(ctx context.Context, password string) Response {
	pw := []byte(password)
	defer secrets.Zero(pw)

	if err := a.vault.Create(ctx, pw); err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("Vault created successfully at: %s", a.vault.Dir()), nil)
}

// UnlockVault verifies password and opens the vault. With remember the
// derived key is saved to the OS keychain for AutoUnlock.
func (a *App) UnlockVault(ctx context.Context, password string, remember bool) Response {
	pw := []byte(password)
	defer secrets.Zero(pw)

	if err := a.vault.Unlock(ctx, pw, vault.UnlockOptions{Remember: remember}); err != nil {
		return fail(err)
	}
	return ok("Vault unlocked successfully", nil)
}

// AutoUnlock opens the vault with the key remembered in the OS keychain.
// It is called once on startup.
func (a *App) AutoUnlock(ctx context.Context) Response {
	if err := a.vault.AutoUnlock(ctx); err != nil {
		return fail(err)
	}
	return ok("Vault unlocked from keychain", nil)
}

// LockVault locks the vault and forgets the remembered key.
func (a *App) LockVault(ctx context.Context) Response {
	if err := a.vault.Lock(ctx); err != nil {
		return fail(err)
	}
	return ok("Vault locked", nil)
}

// GetLockTimeout returns the idle lock timeout in minutes.
func (a *App) GetLockTimeout(ctx context.Context) Response {
	minutes, err := a.vault.LockTimeout(ctx)
	if err != nil {
		return fail(err)
	}
	return ok("", minutes)
}

// SetLockTimeout sets the idle lock timeout. Zero disables it.
func (a *App) SetLockTimeout(ctx context.Context, minutes int) Response {
	if err := a.vault.SetLockTimeout(ctx, minutes); err != nil {
		return fail(err)
	}
	if minutes == 0 {
		return ok("Auto-lock disabled", minutes)
	}
	return ok(fmt.Sprintf("Vault will lock after %d minutes of inactivity", minutes), minutes)
}

// GetDashboardStats returns vault facts and record counts.
func (a *App) GetDashboardStats(ctx context.Context) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	st, err := a.vault.Status(ctx)
	if err != nil {
		return fail(err)
	}
	return ok("", st)
}
