package store

import (
	"context"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/jmoiron/sqlx"
)

const projectColumns = `id, name, COALESCE(description, '') AS description, created_at, updated_at`

// CreateProject inserts a project. Returns ErrConflict if the name is taken.
func (s *Store) CreateProject(ctx context.Context, name, description string) (Project, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, description, ts, ts)
	if err != nil {
		return Project{}, mapErr(err, cerrors.ErrProjectNotFound)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Project{}, mapErr(err, cerrors.ErrProjectNotFound)
	}

	return Project{ID: id, Name: name, Description: description, CreatedAt: ts, UpdatedAt: ts}, nil
}

// Project returns the project with id.
func (s *Store) Project(ctx context.Context, id int64) (Project, error) {
	var p Project
	err := s.db.GetContext(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return p, mapErr(err, cerrors.ErrProjectNotFound)
}

// ProjectByName returns the project with name.
func (s *Store) ProjectByName(ctx context.Context, name string) (Project, error) {
	var p Project
	err := s.db.GetContext(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE name = ?`, name)
	return p, mapErr(err, cerrors.ErrProjectNotFound)
}

// Projects lists all projects ordered by name.
func (s *Store) Projects(ctx context.Context) ([]Project, error) {
	projects := []Project{}
	err := s.db.SelectContext(ctx, &projects, `SELECT `+projectColumns+` FROM projects ORDER BY name`)
	return projects, mapErr(err, cerrors.ErrProjectNotFound)
}

// UpdateProject renames a project and replaces its description.
func (s *Store) UpdateProject(ctx context.Context, id int64, name, description string) (Project, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		name, description, now(), id)
	if err != nil {
		return Project{}, mapErr(err, cerrors.ErrProjectNotFound)
	}
	if err := checkAffected(res, cerrors.ErrProjectNotFound); err != nil {
		return Project{}, err
	}
	return s.Project(ctx, id)
}

// DeleteProject removes a project. Its environments and variables are
// removed by the schema's cascade and returned so callers can report them.
func (s *Store) DeleteProject(ctx context.Context, id int64) (*ProjectDeletion, error) {
	var del ProjectDeletion

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &del.Project,
			`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id); err != nil {
			return mapErr(err, cerrors.ErrProjectNotFound)
		}

		del.Environments = []Environment{}
		if err := tx.SelectContext(ctx, &del.Environments,
			`SELECT `+environmentColumns+` FROM environments WHERE project_id = ? ORDER BY id`, id); err != nil {
			return mapErr(err, cerrors.ErrEnvironmentNotFound)
		}

		del.Variables = []Variable{}
		if err := tx.SelectContext(ctx, &del.Variables,
			`SELECT `+variableColumns+` FROM variables
			 WHERE environment_id IN (SELECT id FROM environments WHERE project_id = ?)
			 ORDER BY id`, id); err != nil {
			return mapErr(err, cerrors.ErrSecretNotFound)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return mapErr(err, cerrors.ErrProjectNotFound)
		}
		return checkAffected(res, cerrors.ErrProjectNotFound)
	})
	if err != nil {
		return nil, err
	}

	return &del, nil
}

// CountEnvironments returns the number of environments in a project.
func (s *Store) CountEnvironments(ctx context.Context, projectID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM environments WHERE project_id = ?`, projectID)
	return n, mapErr(err, cerrors.ErrProjectNotFound)
}
