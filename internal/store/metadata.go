package store

import (
	"context"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
)

// InitMetadata writes the vault_metadata row for a new vault. Calling it on
// an initialized database is a no-op.
func (s *Store) InitMetadata(ctx context.Context) error {
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO vault_metadata (id, version, created_at, last_accessed, last_modified, lock_timeout_minutes)
		 VALUES (1, ?, ?, ?, ?, 0)`,
		SchemaVersion, ts, ts, ts)
	return mapErr(err, cerrors.ErrNotFound)
}

// Metadata returns the vault_metadata row.
func (s *Store) Metadata(ctx context.Context) (Metadata, error) {
	var m Metadata
	err := s.db.GetContext(ctx, &m,
		`SELECT version, created_at, last_accessed, last_modified,
		        COALESCE(lock_timeout_minutes, 0) AS lock_timeout_minutes
		 FROM vault_metadata WHERE id = 1`)
	return m, mapErr(err, cerrors.ErrNotFound)
}

// TouchAccessed sets last_accessed to now.
func (s *Store) TouchAccessed(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE vault_metadata SET last_accessed = ? WHERE id = 1`, now())
	return mapErr(err, cerrors.ErrNotFound)
}

// TouchModified sets last_modified and last_accessed to now.
func (s *Store) TouchModified(ctx context.Context) error {
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`UPDATE vault_metadata SET last_modified = ?, last_accessed = ? WHERE id = 1`, ts, ts)
	return mapErr(err, cerrors.ErrNotFound)
}

// SetLockTimeout stores the idle lock timeout in minutes. Range checks
// belong to the caller.
func (s *Store) SetLockTimeout(ctx context.Context, minutes int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE vault_metadata SET lock_timeout_minutes = ? WHERE id = 1`, minutes)
	if err != nil {
		return mapErr(err, cerrors.ErrNotFound)
	}
	return checkAffected(res, cerrors.ErrNotFound)
}

// Counts returns the number of projects, environments and variables.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.GetContext(ctx, &c,
		`SELECT (SELECT COUNT(*) FROM projects) AS projects,
		        (SELECT COUNT(*) FROM environments) AS environments,
		        (SELECT COUNT(*) FROM variables) AS variables`)
	return c, mapErr(err, cerrors.ErrNotFound)
}
