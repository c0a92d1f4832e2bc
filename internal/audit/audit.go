package audit

import (
	"context"
	"encoding/json"
	"time"

	logger "github.com/clerk-dev/clerk/internal/logging"
)

// Operation types.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpCopy   = "copy"
)

// Entity types.
const (
	EntityProject     = "project"
	EntityEnvironment = "environment"
	EntityVariable    = "variable"
)

// Entry represents a single audit log entry.
type Entry struct {
	ID         int64   `db:"id" json:"id"`
	Timestamp  int64   `db:"timestamp" json:"timestamp"` // Unix seconds.
	Operation  string  `db:"operation_type" json:"operation_type"`
	EntityType string  `db:"entity_type" json:"entity_type"`
	EntityID   *int64  `db:"entity_id" json:"entity_id,omitempty"`
	EntityName *string `db:"entity_name" json:"entity_name,omitempty"`
	Details    *string `db:"details" json:"details,omitempty"` // JSON, never plaintext values.
	CreatedAt  int64   `db:"created_at" json:"created_at"`
}

// Time returns the entry timestamp in local time.
func (e Entry) Time() time.Time {
	return time.Unix(e.Timestamp, 0)
}

// Name returns the entity name or an empty string.
func (e Entry) Name() string {
	if e.EntityName == nil {
		return ""
	}
	return *e.EntityName
}

// Recorder persists audit entries.
type Recorder interface {
	RecordAudit(ctx context.Context, entry Entry) error
}

// New builds an entry for an entity. details is marshalled to JSON when non-nil.
func New(op, entityType string, id int64, name string, details map[string]any) Entry {
	entry := Entry{
		Operation:  op,
		EntityType: entityType,
		EntityID:   &id,
		EntityName: &name,
	}

	if len(details) > 0 {
		if data, err := json.Marshal(details); err == nil {
			s := string(data)
			entry.Details = &s
		}
	}

	return entry
}

// Log records an entry.
// If recording fails, it logs a warning but does not return an error.
// Operations should not fail just because audit logging failed.
func Log(ctx context.Context, rec Recorder, log logger.Logger, entry Entry) {
	if rec == nil {
		return
	}

	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().Unix()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = entry.Timestamp
	}

	if err := rec.RecordAudit(ctx, entry); err != nil {
		log.Warnf("Failed to record audit entry for %s %s: %v", entry.Operation, entry.EntityType, err)
	}
}
