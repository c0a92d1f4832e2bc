package store

import (
	"context"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/jmoiron/sqlx"
)

const environmentColumns = `id, project_id, name, COALESCE(description, '') AS description, created_at, updated_at`

// CreateEnvironment inserts an environment into a project. Returns
// ErrProjectNotFound if the project does not exist and ErrConflict if the
// name is taken within the project.
func (s *Store) CreateEnvironment(ctx context.Context, projectID int64, name, description string) (Environment, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO environments (project_id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		projectID, name, description, ts, ts)
	if err != nil {
		return Environment{}, mapErr(err, cerrors.ErrProjectNotFound)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Environment{}, mapErr(err, cerrors.ErrEnvironmentNotFound)
	}

	return Environment{
		ID:          id,
		ProjectID:   projectID,
		Name:        name,
		Description: description,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// Environment returns the environment with id.
func (s *Store) Environment(ctx context.Context, id int64) (Environment, error) {
	var e Environment
	err := s.db.GetContext(ctx, &e, `SELECT `+environmentColumns+` FROM environments WHERE id = ?`, id)
	return e, mapErr(err, cerrors.ErrEnvironmentNotFound)
}

// EnvironmentByName returns the environment called name in a project.
func (s *Store) EnvironmentByName(ctx context.Context, projectID int64, name string) (Environment, error) {
	var e Environment
	err := s.db.GetContext(ctx, &e,
		`SELECT `+environmentColumns+` FROM environments WHERE project_id = ? AND name = ?`, projectID, name)
	return e, mapErr(err, cerrors.ErrEnvironmentNotFound)
}

// Environments lists a project's environments ordered by name.
func (s *Store) Environments(ctx context.Context, projectID int64) ([]Environment, error) {
	envs := []Environment{}
	err := s.db.SelectContext(ctx, &envs,
		`SELECT `+environmentColumns+` FROM environments WHERE project_id = ? ORDER BY name`, projectID)
	return envs, mapErr(err, cerrors.ErrEnvironmentNotFound)
}

// UpdateEnvironment renames an environment and replaces its description.
// The owning project cannot change.
func (s *Store) UpdateEnvironment(ctx context.Context, id int64, name, description string) (Environment, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE environments SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		name, description, now(), id)
	if err != nil {
		return Environment{}, mapErr(err, cerrors.ErrEnvironmentNotFound)
	}
	if err := checkAffected(res, cerrors.ErrEnvironmentNotFound); err != nil {
		return Environment{}, err
	}
	return s.Environment(ctx, id)
}

// DeleteEnvironment removes an environment and, by cascade, its variables.
func (s *Store) DeleteEnvironment(ctx context.Context, id int64) (*EnvironmentDeletion, error) {
	var del EnvironmentDeletion

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &del.Environment,
			`SELECT `+environmentColumns+` FROM environments WHERE id = ?`, id); err != nil {
			return mapErr(err, cerrors.ErrEnvironmentNotFound)
		}

		del.Variables = []Variable{}
		if err := tx.SelectContext(ctx, &del.Variables,
			`SELECT `+variableColumns+` FROM variables WHERE environment_id = ? ORDER BY id`, id); err != nil {
			return mapErr(err, cerrors.ErrSecretNotFound)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM environments WHERE id = ?`, id)
		if err != nil {
			return mapErr(err, cerrors.ErrEnvironmentNotFound)
		}
		return checkAffected(res, cerrors.ErrEnvironmentNotFound)
	})
	if err != nil {
		return nil, err
	}

	return &del, nil
}

// CountVariables returns the number of variables in an environment.
func (s *Store) CountVariables(ctx context.Context, environmentID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM variables WHERE environment_id = ?`, environmentID)
	return n, mapErr(err, cerrors.ErrEnvironmentNotFound)
}
