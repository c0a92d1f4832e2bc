package workflows

import (
	"context"

	"github.com/clerk-dev/clerk/internal/audit"
)

// AuditOptions configures the audit workflow. Dates are YYYY-MM-DD or
// RFC 3339; an Until date without a time covers the whole day.
type AuditOptions struct {
	EntityType string
	Operation  string
	Since      string
	Until      string
	Limit      int
	Offset     int
}

// AuditLog returns audit entries, newest first.
func AuditLog(ctx context.Context, h *Handle, opts AuditOptions) ([]audit.Entry, error) {
	f := audit.Filter{
		EntityType: opts.EntityType,
		Operation:  opts.Operation,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	}

	var err error
	if opts.Since != "" {
		if f.Since, err = audit.ParseDate(opts.Since, false); err != nil {
			return nil, err
		}
	}
	if opts.Until != "" {
		if f.Until, err = audit.ParseDate(opts.Until, true); err != nil {
			return nil, err
		}
	}

	if _, err := h.Unlock(ctx, false); err != nil {
		return nil, err
	}
	return h.Vault.AuditLog(ctx, f)
}
