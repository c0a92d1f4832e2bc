package workflows

import (
	"context"
	"errors"
	"fmt"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/store"
	"github.com/clerk-dev/clerk/internal/vault"
)

// Target names an environment within a project.
type Target struct {
	Project     string
	Environment string
}

// resolve unlocks the vault and looks up the target environment.
func resolve(ctx context.Context, h *Handle, t Target) (store.Project, store.Environment, error) {
	if _, err := h.Unlock(ctx, false); err != nil {
		return store.Project{}, store.Environment{}, err
	}

	p, err := h.Vault.ProjectByName(ctx, t.Project)
	if err != nil {
		return store.Project{}, store.Environment{}, notFound(err, cerrors.ErrProjectNotFound, "'%s'", t.Project)
	}

	env, err := h.Vault.EnvironmentByName(ctx, p.ID, t.Environment)
	if err != nil {
		return store.Project{}, store.Environment{}, notFound(err, cerrors.ErrEnvironmentNotFound, "'%s' in project '%s'", t.Environment, t.Project)
	}

	return p, env, nil
}

// notFound rewrites a lookup miss as "<sentinel>: <what>". Other errors
// pass through.
func notFound(err, sentinel error, format string, args ...any) error {
	if !errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
}

func secretByKey(ctx context.Context, h *Handle, envID int64, key string) (vault.Secret, error) {
	s, err := h.Vault.SecretByKey(ctx, envID, key)
	if err == nil {
		return s, nil
	}
	if errors.Is(err, cerrors.ErrSecretNotFound) {
		return vault.Secret{}, notFound(err, cerrors.ErrSecretNotFound, "'%s'", key)
	}
	return vault.Secret{}, fmt.Errorf("variable '%s': %w", key, err)
}

// GetOptions configures the get workflow.
type GetOptions struct {
	Target
	Key string
}

// Get returns one decrypted variable. The caller must Wipe it.
func Get(ctx context.Context, h *Handle, opts GetOptions) (*vault.Secret, error) {
	_, env, err := resolve(ctx, h, opts.Target)
	if err != nil {
		return nil, err
	}

	s, err := secretByKey(ctx, h, env.ID, opts.Key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SetOptions configures the set workflow.
type SetOptions struct {
	Target
	Key   string
	Value []byte

	// Description replaces the stored one when non-empty.
	Description string
}

// SetResult contains the outcome of a set operation.
type SetResult struct {
	Key     string
	Created bool
}

// Set creates or replaces a variable.
func Set(ctx context.Context, h *Handle, opts SetOptions) (*SetResult, error) {
	_, env, err := resolve(ctx, h, opts.Target)
	if err != nil {
		return nil, err
	}

	s, created, err := h.Vault.UpsertSecret(ctx, env.ID, opts.Key, opts.Value, opts.Description)
	if err != nil {
		return nil, err
	}
	s.Wipe()

	return &SetResult{Key: s.Key, Created: created}, nil
}

// DeleteOptions configures the delete workflow.
type DeleteOptions struct {
	Target
	Key   string
	Force bool
}

// Delete removes a variable. Without Force it returns ErrConfirmationRequired
// and changes nothing.
func Delete(ctx context.Context, h *Handle, opts DeleteOptions) error {
	if !opts.Force {
		return cerrors.ErrConfirmationRequired
	}

	_, env, err := resolve(ctx, h, opts.Target)
	if err != nil {
		return err
	}

	s, err := secretByKey(ctx, h, env.ID, opts.Key)
	if err != nil {
		return err
	}
	s.Wipe()

	return h.Vault.DeleteSecret(ctx, s.ID)
}

// CopyOptions configures the copy workflow.
type CopyOptions struct {
	Target
	Key string

	// DestProject defaults to the source project.
	DestProject     string
	DestEnvironment string
}

// CopyResult contains the outcome of a copy operation.
type CopyResult struct {
	Key  string
	From Target
	To   Target
}

// Copy copies a variable into another environment, possibly in another project.
func Copy(ctx context.Context, h *Handle, opts CopyOptions) (*CopyResult, error) {
	_, src, err := resolve(ctx, h, opts.Target)
	if err != nil {
		return nil, err
	}

	to := Target{Project: opts.DestProject, Environment: opts.DestEnvironment}
	if to.Project == "" {
		to.Project = opts.Project
	}

	_, dst, err := resolve(ctx, h, to)
	if err != nil {
		return nil, err
	}

	s, err := secretByKey(ctx, h, src.ID, opts.Key)
	if err != nil {
		return nil, err
	}
	s.Wipe()

	copied, err := h.Vault.CopySecret(ctx, s.ID, dst.ID)
	if err != nil {
		return nil, err
	}
	copied.Wipe()

	return &CopyResult{Key: copied.Key, From: opts.Target, To: to}, nil
}

// ListOptions configures the list workflow.
type ListOptions struct {
	Target
}

// ListResult contains the outcome of a list operation.
type ListResult struct {
	Project     store.Project
	Environment store.Environment

	// Secrets holds every variable that decrypted. The caller must wipe them.
	Secrets []vault.Secret

	// DecryptErr is set when some variables could not be decrypted.
	DecryptErr error
}

// List decrypts the variables of an environment. Unlike Export and Run,
// records that fail to decrypt are reported in DecryptErr instead of
// failing the whole listing.
func List(ctx context.Context, h *Handle, opts ListOptions) (*ListResult, error) {
	p, env, err := resolve(ctx, h, opts.Target)
	if err != nil {
		return nil, err
	}

	list, err := h.Vault.Secrets(ctx, env.ID)
	if err != nil && !errors.Is(err, cerrors.ErrDecryptFailed) {
		vault.WipeAll(list)
		return nil, err
	}

	return &ListResult{Project: p, Environment: env, Secrets: list, DecryptErr: err}, nil
}

// secretsAll decrypts an environment all-or-nothing.
func secretsAll(ctx context.Context, h *Handle, envID int64) ([]vault.Secret, error) {
	list, err := h.Vault.Secrets(ctx, envID)
	if err != nil {
		vault.WipeAll(list)
		return nil, err
	}
	return list, nil
}
