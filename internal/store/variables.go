package store

import (
	"context"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
)

const variableColumns = `id, environment_id, key, encrypted_value, COALESCE(description, '') AS description, created_at, updated_at`

// CreateVariable inserts a variable. EncryptedValue must already be
// ciphertext. Returns ErrEnvironmentNotFound if the environment does not
// exist and ErrConflict if the key is taken within the environment.
func (s *Store) CreateVariable(ctx context.Context, v Variable) (Variable, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO variables (environment_id, key, encrypted_value, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.EnvironmentID, v.Key, v.EncryptedValue, v.Description, ts, ts)
	if err != nil {
		return Variable{}, mapErr(err, cerrors.ErrEnvironmentNotFound)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Variable{}, mapErr(err, cerrors.ErrSecretNotFound)
	}

	v.ID = id
	v.CreatedAt = ts
	v.UpdatedAt = ts
	return v, nil
}

// Variable returns the variable with id.
func (s *Store) Variable(ctx context.Context, id int64) (Variable, error) {
	var v Variable
	err := s.db.GetContext(ctx, &v, `SELECT `+variableColumns+` FROM variables WHERE id = ?`, id)
	return v, mapErr(err, cerrors.ErrSecretNotFound)
}

// VariableByKey returns the variable with key in an environment.
func (s *Store) VariableByKey(ctx context.Context, environmentID int64, key string) (Variable, error) {
	var v Variable
	err := s.db.GetContext(ctx, &v,
		`SELECT `+variableColumns+` FROM variables WHERE environment_id = ? AND key = ?`, environmentID, key)
	return v, mapErr(err, cerrors.ErrSecretNotFound)
}

// Variables lists an environment's variables ordered by key.
func (s *Store) Variables(ctx context.Context, environmentID int64) ([]Variable, error) {
	vars := []Variable{}
	err := s.db.SelectContext(ctx, &vars,
		`SELECT `+variableColumns+` FROM variables WHERE environment_id = ? ORDER BY key`, environmentID)
	return vars, mapErr(err, cerrors.ErrSecretNotFound)
}

// UpdateVariable replaces the key, ciphertext and description of v.ID.
// The environment cannot change.
func (s *Store) UpdateVariable(ctx context.Context, v Variable) (Variable, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE variables SET key = ?, encrypted_value = ?, description = ?, updated_at = ? WHERE id = ?`,
		v.Key, v.EncryptedValue, v.Description, ts, v.ID)
	if err != nil {
		return Variable{}, mapErr(err, cerrors.ErrSecretNotFound)
	}
	if err := checkAffected(res, cerrors.ErrSecretNotFound); err != nil {
		return Variable{}, err
	}
	return s.Variable(ctx, v.ID)
}

// DeleteVariable removes a variable and returns what was removed.
func (s *Store) DeleteVariable(ctx context.Context, id int64) (Variable, error) {
	v, err := s.Variable(ctx, id)
	if err != nil {
		return Variable{}, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM variables WHERE id = ?`, id)
	if err != nil {
		return Variable{}, mapErr(err, cerrors.ErrSecretNotFound)
	}
	if err := checkAffected(res, cerrors.ErrSecretNotFound); err != nil {
		return Variable{}, err
	}
	return v, nil
}
