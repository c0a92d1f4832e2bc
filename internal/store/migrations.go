package store

import (
	"context"
	"fmt"
	"time"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/jmoiron/sqlx"
)

// SchemaVersion is the newest migration version.
const SchemaVersion = 3

type migration struct {
	version int
	name    string
	up      func(ctx context.Context, tx *sqlx.Tx) error
}

var migrations = []migration{
	{1, "initial schema", migrateInitial},
	{2, "lock timeout column", migrateLockTimeout},
	{3, "audit log", migrateAuditLog},
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at INTEGER NOT NULL
);`

// migrate applies every migration newer than the recorded version. The
// statements are idempotent, so databases created before versioning was
// tracked are brought forward safely.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("%w: creating schema_migrations: %v", cerrors.ErrMigration, err)
	}

	var current int
	if err := s.db.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return fmt.Errorf("%w: reading schema version: %v", cerrors.ErrMigration, err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		s.log.Debugf("Applying migration %d (%s)", m.version, m.name)

		err := s.withTx(ctx, func(tx *sqlx.Tx) error {
			if err := m.up(ctx, tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
				m.version, m.name, time.Now().Unix())
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: migration %d (%s): %v", cerrors.ErrMigration, m.version, m.name, err)
		}
	}

	return nil
}

func migrateInitial(ctx context.Context, tx *sqlx.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vault_metadata (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			last_accessed INTEGER NOT NULL,
			last_modified INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name)`,
		`CREATE TABLE IF NOT EXISTS environments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
			UNIQUE(project_id, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_environments_project ON environments(project_id)`,
		`CREATE TABLE IF NOT EXISTS variables (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			environment_id INTEGER NOT NULL,
			key TEXT NOT NULL,
			encrypted_value BLOB NOT NULL,
			description TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			FOREIGN KEY (environment_id) REFERENCES environments(id) ON DELETE CASCADE,
			UNIQUE(environment_id, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_variables_environment ON variables(environment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_variables_key ON variables(key)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateLockTimeout(ctx context.Context, tx *sqlx.Tx) error {
	var exists int
	err := tx.GetContext(ctx, &exists,
		`SELECT COUNT(*) FROM pragma_table_info('vault_metadata') WHERE name = 'lock_timeout_minutes'`)
	if err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}

	_, err = tx.ExecContext(ctx, `ALTER TABLE vault_metadata ADD COLUMN lock_timeout_minutes INTEGER DEFAULT 0`)
	return err
}

func migrateAuditLog(ctx context.Context, tx *sqlx.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			operation_type TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id INTEGER,
			entity_name TEXT,
			details TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log(entity_type, entity_id)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
