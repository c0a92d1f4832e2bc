package store

import (
	"context"

	"github.com/clerk-dev/clerk/internal/audit"
	cerrors "github.com/clerk-dev/clerk/internal/errors"
)

// RecordAudit appends an entry to the audit log.
func (s *Store) RecordAudit(ctx context.Context, e audit.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (timestamp, operation_type, entity_type, entity_id, entity_name, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp, e.Operation, e.EntityType, e.EntityID, e.EntityName, e.Details, e.CreatedAt)
	return mapErr(err, cerrors.ErrNotFound)
}

// QueryAudit returns audit entries matching f, newest first.
func (s *Store) QueryAudit(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	where, args := f.Where()

	query := `SELECT id, timestamp, operation_type, entity_type, entity_id, entity_name, details, created_at
	          FROM audit_log` + where + ` ORDER BY timestamp DESC, id DESC`

	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, f.Offset)
		}
	} else if f.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, f.Offset)
	}

	entries := []audit.Entry{}
	err := s.db.SelectContext(ctx, &entries, query, args...)
	return entries, mapErr(err, cerrors.ErrNotFound)
}
