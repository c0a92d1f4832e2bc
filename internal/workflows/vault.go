package workflows

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/secrets"
	"github.com/clerk-dev/clerk/internal/vault"
)

// CreateOptions configures the create workflow.
type CreateOptions struct {
	// Password is the new master password. The workflow zeroes it.
	Password []byte

	// Confirmation must equal Password. The workflow zeroes it.
	Confirmation []byte

	// Remember stores the derived key in the keychain.
	Remember bool
}

// CreateResult contains the outcome of a create operation.
type CreateResult struct {
	VaultDir     string
	SessionSaved bool
	Remembered   bool
}

// Create initializes a new vault and leaves it unlocked.
//
// Returns ErrPasswordMismatch if the confirmation differs, ErrPasswordTooShort
// for short passwords and ErrVaultExists if the directory already holds a vault.
func Create(ctx context.Context, h *Handle, opts CreateOptions) (*CreateResult, error) {
	defer secrets.Zero(opts.Password)
	defer secrets.Zero(opts.Confirmation)

	if subtle.ConstantTimeCompare(opts.Password, opts.Confirmation) != 1 {
		return nil, cerrors.ErrPasswordMismatch
	}

	if err := h.Vault.Create(ctx, opts.Password); err != nil {
		return nil, err
	}

	result := &CreateResult{VaultDir: h.Vault.Dir()}

	if h.useSession {
		if err := h.session.Store(ctx, opts.Password); err != nil {
			h.log.Warnf("Failed to save session: %v", err)
		} else {
			result.SessionSaved = true
		}
	}

	// Create leaves the vault unlocked; a relock with Remember is the only
	// path that stores the key.
	if opts.Remember && h.keychain != nil {
		if err := h.Vault.Close(); err != nil {
			return nil, err
		}
		if err := h.Vault.Unlock(ctx, opts.Password, vault.UnlockOptions{Remember: true}); err != nil {
			return nil, err
		}
		result.Remembered = h.remembered(ctx)
	}

	return result, nil
}

// UnlockOptions configures the unlock workflow.
type UnlockOptions struct {
	Remember bool
}

// UnlockResult contains the outcome of an unlock operation.
type UnlockResult struct {
	Method     UnlockMethod
	Remembered bool
}

// Unlock unlocks the vault, caching credentials as configured.
func Unlock(ctx context.Context, h *Handle, opts UnlockOptions) (*UnlockResult, error) {
	method, err := h.Unlock(ctx, opts.Remember)
	if err != nil {
		return nil, err
	}
	return &UnlockResult{Method: method, Remembered: h.remembered(ctx)}, nil
}

// LockResult contains the outcome of a lock operation.
type LockResult struct {
	SessionCleared bool
}

// Lock removes the session password and the remembered key so the next
// command prompts for the password.
func Lock(ctx context.Context, h *Handle) (*LockResult, error) {
	result := &LockResult{SessionCleared: h.sessionActive(ctx)}

	var errs []error
	if err := h.session.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clearing session: %w", err))
	}
	if err := h.Vault.Lock(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return result, nil
}

// StatusResult contains the outcome of a status operation.
type StatusResult struct {
	*vault.Status

	// Unlockable reports whether a cached credential opened the vault.
	Unlockable    bool
	SessionActive bool
	SessionPath   string
	Remembered    bool
}

// Status describes the vault without prompting. Record counts are only
// available when a cached credential can unlock it.
func Status(ctx context.Context, h *Handle) (*StatusResult, error) {
	result := &StatusResult{
		SessionActive: h.sessionActive(ctx),
		SessionPath:   h.SessionPath(),
		Remembered:    h.remembered(ctx),
	}

	if h.Vault.Exists() {
		result.Unlockable = h.TryUnlock(ctx)
	}

	st, err := h.Vault.Status(ctx)
	if err != nil {
		return nil, err
	}
	result.Status = st

	return result, nil
}

// TimeoutOptions configures the timeout workflow.
type TimeoutOptions struct {
	// Minutes sets the timeout when non-nil.
	Minutes *int
}

// TimeoutResult contains the effective lock timeout.
type TimeoutResult struct {
	Minutes int
	Changed bool
}

// Timeout reads or sets the idle lock timeout.
func Timeout(ctx context.Context, h *Handle, opts TimeoutOptions) (*TimeoutResult, error) {
	if opts.Minutes != nil {
		m := *opts.Minutes
		if m < 0 || m > vault.MaxLockTimeout {
			return nil, cerrors.ErrInvalidLockTimeout
		}
	}

	if _, err := h.Unlock(ctx, false); err != nil {
		return nil, err
	}

	if opts.Minutes != nil {
		if err := h.Vault.SetLockTimeout(ctx, *opts.Minutes); err != nil {
			return nil, err
		}
		return &TimeoutResult{Minutes: *opts.Minutes, Changed: true}, nil
	}

	minutes, err := h.Vault.LockTimeout(ctx)
	if err != nil {
		return nil, err
	}
	return &TimeoutResult{Minutes: minutes}, nil
}
