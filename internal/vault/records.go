package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clerk-dev/clerk/internal/audit"
	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/secrets"
	"github.com/clerk-dev/clerk/internal/store"
)

// Secret is a decrypted variable. Value is plaintext; call Wipe when done.
type Secret struct {
	ID            int64
	EnvironmentID int64
	Key           string
	Value         []byte
	Description   string
	CreatedAt     int64
	UpdatedAt     int64
}

// Wipe zeroes the plaintext value.
func (s *Secret) Wipe() {
	secrets.Zero(s.Value)
}

// WipeAll zeroes every value in list.
func WipeAll(list []Secret) {
	for i := range list {
		list[i].Wipe()
	}
}

// AAD returns the associated data binding a ciphertext to its environment
// and key. Renaming a key or moving it to another environment requires
// re-encryption.
func AAD(environmentID int64, key string) []byte {
	return []byte(fmt.Sprintf("env:%d;key:%s", environmentID, key))
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: must not be empty", cerrors.ErrInvalidName)
	}
	return name, nil
}

func (v *Vault) record(ctx context.Context, e audit.Entry) {
	audit.Log(ctx, v.store, v.log, e)
}

func (v *Vault) touch(ctx context.Context, modified bool) {
	var err error
	if modified {
		err = v.store.TouchModified(ctx)
	} else {
		err = v.store.TouchAccessed(ctx)
	}
	if err != nil {
		v.log.Warnf("Failed to update vault timestamps: %v", err)
	}
}

func (v *Vault) encrypt(environmentID int64, key string, value []byte) ([]byte, error) {
	return secrets.Encrypt(v.key, value, AAD(environmentID, key))
}

func (v *Vault) decrypt(variable store.Variable) (Secret, error) {
	plain, err := secrets.Decrypt(v.key, variable.EncryptedValue, AAD(variable.EnvironmentID, variable.Key))
	if err != nil {
		return Secret{}, err
	}
	return Secret{
		ID:            variable.ID,
		EnvironmentID: variable.EnvironmentID,
		Key:           variable.Key,
		Value:         plain,
		Description:   variable.Description,
		CreatedAt:     variable.CreatedAt,
		UpdatedAt:     variable.UpdatedAt,
	}, nil
}

// CreateSecret encrypts value under the (environment, key) slot and stores
// it. Returns ErrConflict if key already exists in the environment.
func (v *Vault) CreateSecret(ctx context.Context, environmentID int64, key string, value []byte, description string) (Secret, error) {
	key, err := validName(key)
	if err != nil {
		return Secret{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return Secret{}, err
	}
	return v.createSecretLocked(ctx, environmentID, key, value, description)
}

func (v *Vault) createSecretLocked(ctx context.Context, environmentID int64, key string, value []byte, description string) (Secret, error) {
	if _, err := v.store.Environment(ctx, environmentID); err != nil {
		return Secret{}, err
	}

	ciphertext, err := v.encrypt(environmentID, key, value)
	if err != nil {
		return Secret{}, err
	}

	variable, err := v.store.CreateVariable(ctx, store.Variable{
		EnvironmentID:  environmentID,
		Key:            key,
		EncryptedValue: ciphertext,
		Description:    description,
	})
	if err != nil {
		return Secret{}, fmt.Errorf("creating variable %q: %w", key, err)
	}

	v.record(ctx, audit.New(audit.OpCreate, audit.EntityVariable, variable.ID, key, map[string]any{
		"environment_id": environmentID,
		"description":    description,
	}))
	v.touch(ctx, true)

	return Secret{
		ID:            variable.ID,
		EnvironmentID: environmentID,
		Key:           key,
		Value:         append([]byte(nil), value...),
		Description:   description,
		CreatedAt:     variable.CreatedAt,
		UpdatedAt:     variable.UpdatedAt,
	}, nil
}

// Secrets decrypts every variable in an environment, ordered by key. A
// record that fails to decrypt does not hide the others: the decryptable
// secrets are returned together with an error that wraps ErrDecryptFailed
// and names each failing key. Callers that need all-or-nothing must treat
// any error as fatal.
func (v *Vault) Secrets(ctx context.Context, environmentID int64) ([]Secret, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}

	if _, err := v.store.Environment(ctx, environmentID); err != nil {
		return nil, err
	}

	variables, err := v.store.Variables(ctx, environmentID)
	if err != nil {
		return nil, err
	}

	out := make([]Secret, 0, len(variables))
	var errs []error
	for _, variable := range variables {
		s, err := v.decrypt(variable)
		if err != nil {
			errs = append(errs, fmt.Errorf("variable %q: %w", variable.Key, err))
			continue
		}
		out = append(out, s)
	}
	v.touch(ctx, false)

	return out, errors.Join(errs...)
}

// SecretKeys lists the variable keys of an environment without decrypting.
func (v *Vault) SecretKeys(ctx context.Context, environmentID int64) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}

	variables, err := v.store.Variables(ctx, environmentID)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(variables))
	for _, variable := range variables {
		keys = append(keys, variable.Key)
	}
	return keys, nil
}

// Secret decrypts one variable by id.
func (v *Vault) Secret(ctx context.Context, id int64) (Secret, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return Secret{}, err
	}

	variable, err := v.store.Variable(ctx, id)
	if err != nil {
		return Secret{}, err
	}
	v.touch(ctx, false)
	return v.decrypt(variable)
}

// SecretByKey decrypts one variable by key within an environment.
func (v *Vault) SecretByKey(ctx context.Context, environmentID int64, key string) (Secret, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return Secret{}, err
	}

	variable, err := v.store.VariableByKey(ctx, environmentID, key)
	if err != nil {
		return Secret{}, err
	}
	v.touch(ctx, false)
	return v.decrypt(variable)
}

// UpdateSecret replaces the key, value and description of a variable. The
// value is always re-encrypted under the new key name so the ciphertext
// stays bound to the slot it lives in.
func (v *Vault) UpdateSecret(ctx context.Context, id int64, newKey string, newValue []byte, description string) (Secret, error) {
	newKey, err := validName(newKey)
	if err != nil {
		return Secret{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return Secret{}, err
	}

	current, err := v.store.Variable(ctx, id)
	if err != nil {
		return Secret{}, err
	}
	return v.updateSecretLocked(ctx, current, newKey, newValue, description)
}

func (v *Vault) updateSecretLocked(ctx context.Context, current store.Variable, newKey string, newValue []byte, description string) (Secret, error) {
	ciphertext, err := v.encrypt(current.EnvironmentID, newKey, newValue)
	if err != nil {
		return Secret{}, err
	}

	previousKey := current.Key
	current.Key = newKey
	current.EncryptedValue = ciphertext
	current.Description = description

	updated, err := v.store.UpdateVariable(ctx, current)
	if err != nil {
		return Secret{}, fmt.Errorf("updating variable %q: %w", newKey, err)
	}

	details := map[string]any{
		"environment_id": current.EnvironmentID,
		"description":    description,
	}
	if previousKey != newKey {
		details["previous_key"] = previousKey
	}
	v.record(ctx, audit.New(audit.OpUpdate, audit.EntityVariable, updated.ID, newKey, details))
	v.touch(ctx, true)

	return Secret{
		ID:            updated.ID,
		EnvironmentID: updated.EnvironmentID,
		Key:           updated.Key,
		Value:         append([]byte(nil), newValue...),
		Description:   updated.Description,
		CreatedAt:     updated.CreatedAt,
		UpdatedAt:     updated.UpdatedAt,
	}, nil
}

// UpsertSecret creates key in the environment or, when it exists, replaces
// its value. created reports which happened. A non-empty description
// replaces the existing one.
func (v *Vault) UpsertSecret(ctx context.Context, environmentID int64, key string, value []byte, description string) (s Secret, created bool, err error) {
	key, err = validName(key)
	if err != nil {
		return Secret{}, false, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return Secret{}, false, err
	}

	current, err := v.store.VariableByKey(ctx, environmentID, key)
	if errors.Is(err, cerrors.ErrSecretNotFound) {
		s, err := v.createSecretLocked(ctx, environmentID, key, value, description)
		return s, err == nil, err
	}
	if err != nil {
		return Secret{}, false, err
	}

	if description == "" {
		description = current.Description
	}
	s, err = v.updateSecretLocked(ctx, current, key, value, description)
	return s, false, err
}

// DeleteSecret removes a variable.
func (v *Vault) DeleteSecret(ctx context.Context, id int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return err
	}

	removed, err := v.store.DeleteVariable(ctx, id)
	if err != nil {
		return err
	}

	v.record(ctx, audit.New(audit.OpDelete, audit.EntityVariable, removed.ID, removed.Key, map[string]any{
		"environment_id": removed.EnvironmentID,
	}))
	v.touch(ctx, true)
	return nil
}

// CopySecret copies a variable into another environment, re-encrypting it
// for the destination slot. Returns ErrConflict if the key already exists
// there.
func (v *Vault) CopySecret(ctx context.Context, id, dstEnvironmentID int64) (Secret, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return Secret{}, err
	}

	source, err := v.store.Variable(ctx, id)
	if err != nil {
		return Secret{}, err
	}

	plain, err := v.decrypt(source)
	if err != nil {
		return Secret{}, fmt.Errorf("variable %q: %w", source.Key, err)
	}
	defer plain.Wipe()

	if _, err := v.store.Environment(ctx, dstEnvironmentID); err != nil {
		return Secret{}, err
	}

	ciphertext, err := v.encrypt(dstEnvironmentID, source.Key, plain.Value)
	if err != nil {
		return Secret{}, err
	}

	copied, err := v.store.CreateVariable(ctx, store.Variable{
		EnvironmentID:  dstEnvironmentID,
		Key:            source.Key,
		EncryptedValue: ciphertext,
		Description:    source.Description,
	})
	if err != nil {
		return Secret{}, fmt.Errorf("copying variable %q: %w", source.Key, err)
	}

	v.record(ctx, audit.New(audit.OpCopy, audit.EntityVariable, copied.ID, copied.Key, map[string]any{
		"source_id":             source.ID,
		"source_environment_id": source.EnvironmentID,
		"environment_id":        dstEnvironmentID,
	}))
	v.touch(ctx, true)

	return Secret{
		ID:            copied.ID,
		EnvironmentID: copied.EnvironmentID,
		Key:           copied.Key,
		Value:         append([]byte(nil), plain.Value...),
		Description:   copied.Description,
		CreatedAt:     copied.CreatedAt,
		UpdatedAt:     copied.UpdatedAt,
	}, nil
}

// AuditLog returns audit entries matching f, newest first.
func (v *Vault) AuditLog(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}
	return v.store.QueryAudit(ctx, f)
}
