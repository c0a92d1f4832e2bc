package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	logger "github.com/clerk-dev/clerk/internal/logging"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store persists projects, environments, variables and the audit log in a
// single SQLite file.
type Store struct {
	db   *sqlx.DB
	path string
	log  logger.Logger
}

// Options configures Open.
type Options struct {
	Logger logger.Logger
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)"

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", cerrors.ErrStorage, err)
	}
	// SQLite serializes writers anyway; one connection keeps pragmas and
	// transactions on the same handle.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connecting to database: %v", cerrors.ErrStorage, err)
	}

	s := &Store{db: db, path: path, log: opts.Logger}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := os.Chmod(path, 0600); err != nil {
		s.log.Warnf("Failed to restrict permissions on %s: %v", path, err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", cerrors.ErrStorage, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", cerrors.ErrStorage, err)
	}
	return nil
}

// mapErr translates driver errors into the error taxonomy. notFound is
// returned for sql.ErrNoRows.
func mapErr(err error, notFound error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch {
		case serr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY,
			serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(serr.Error(), "FOREIGN KEY"):
			return notFound
		case serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %v", cerrors.ErrConflict, err)
		}
	}

	return fmt.Errorf("%w: %v", cerrors.ErrStorage, err)
}

// checkAffected returns notFound when an update or delete touched no rows.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrStorage, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
