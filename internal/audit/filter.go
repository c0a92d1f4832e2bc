package audit

import (
	"fmt"
	"strings"
	"time"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
)

// Filter narrows an audit query. Zero values mean "no constraint".
// Stores translate it to a parameterized query; values are never
// interpolated into query text.
type Filter struct {
	EntityType string
	EntityID   *int64
	Operation  string
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

// Where returns the SQL conditions and their arguments for the filter.
// The returned clause is either empty or starts with " WHERE ".
func (f Filter) Where() (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.EntityType != "" {
		conds = append(conds, "entity_type = ?")
		args = append(args, f.EntityType)
	}
	if f.EntityID != nil {
		conds = append(conds, "entity_id = ?")
		args = append(args, *f.EntityID)
	}
	if f.Operation != "" {
		conds = append(conds, "operation_type = ?")
		args = append(args, f.Operation)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.Since.Unix())
	}
	if !f.Until.IsZero() {
		conds = append(conds, "timestamp <= ?")
		args = append(args, f.Until.Unix())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ParseDate parses a YYYY-MM-DD date in local time. When endOfDay is set
// the result is the last second of that day.
func ParseDate(s string, endOfDay bool) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q, use YYYY-MM-DD", cerrors.ErrInvalidDateFormat, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}
