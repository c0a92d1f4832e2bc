// Package store is the SQLite storage layer behind a Clerk vault.
//
// It uses the pure Go modernc.org/sqlite driver through sqlx. Foreign keys
// are enabled on every connection so deleting a project or environment
// cascades to its children; uniqueness of project names, environment names
// per project, and variable keys per environment is enforced by the schema
// and reported as errors.ErrConflict.
//
// The store never sees plaintext secret values. Variables carry ciphertext
// produced by the vault package.
//
// Migrations are versioned in schema_migrations and are idempotent, so
// databases from older releases are upgraded in place.
package store
