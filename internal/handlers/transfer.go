package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/clerk-dev/clerk/internal/audit"
	"github.com/clerk-dev/clerk/internal/utils"
	"github.com/clerk-dev/clerk/internal/vault"
)

// ImportSummary counts what ImportEnv did.
type ImportSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// ExportEnv renders an environment as dotenv content. It fails if any
// variable cannot be decrypted.
func (a *App) ExportEnv(ctx context.Context, environmentID int64) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}

	env, err := a.vault.Environment(ctx, environmentID)
	if err != nil {
		return fail(err)
	}
	p, err := a.vault.Project(ctx, env.ProjectID)
	if err != nil {
		return fail(err)
	}

	list, err := a.vault.Secrets(ctx, environmentID)
	defer vault.WipeAll(list)
	if err != nil {
		return fail(err)
	}

	entries := make([]utils.EnvEntry, 0, len(list))
	for _, s := range list {
		entries = append(entries, utils.EnvEntry{Key: s.Key, Value: string(s.Value)})
	}

	header := []string{
		"Generated by Clerk",
		"Project: " + p.Name,
		"Environment: " + env.Name,
		fmt.Sprintf("Total variables: %d", len(entries)),
	}
	content, err := utils.FormatDotenv(header, entries)
	if err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("Exported %d variable(s)", len(entries)), content)
}

// ImportEnv reads dotenv content into an environment. Existing keys are
// skipped unless overwrite is set.
func (a *App) ImportEnv(ctx context.Context, environmentID int64, content string, overwrite bool) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}

	entries, err := utils.ParseDotenv(strings.NewReader(content))
	if err != nil {
		return fail(err)
	}

	keys, err := a.vault.SecretKeys(ctx, environmentID)
	if err != nil {
		return fail(err)
	}
	existing := make(map[string]bool, len(keys))
	for _, k := range keys {
		existing[k] = true
	}

	var sum ImportSummary
	for _, e := range entries {
		if existing[e.Key] && !overwrite {
			sum.Skipped++
			continue
		}
		s, created, err := a.vault.UpsertSecret(ctx, environmentID, e.Key, []byte(e.Value), "")
		if err != nil {
			return Response{Success: false, Message: fmt.Sprintf("importing '%s': %s", e.Key, messageFor(err)), Data: sum}
		}
		s.Wipe()
		if created {
			sum.Created++
		} else {
			sum.Updated++
		}
	}

	return ok(fmt.Sprintf("Imported %d, updated %d, skipped %d", sum.Created, sum.Updated, sum.Skipped), sum)
}

// AuditQuery is the filter sent by the audit log view.
type AuditQuery struct {
	EntityType string `json:"entity_type"`
	EntityID   *int64 `json:"entity_id"`
	Operation  string `json:"operation"`
	Since      string `json:"since"`
	Until      string `json:"until"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// GetAuditLogs returns audit entries, newest first.
func (a *App) GetAuditLogs(ctx context.Context, q AuditQuery) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}

	f := audit.Filter{
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		Operation:  q.Operation,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}

	var err error
	if q.Since != "" {
		if f.Since, err = audit.ParseDate(q.Since, false); err != nil {
			return fail(err)
		}
	}
	if q.Until != "" {
		if f.Until, err = audit.ParseDate(q.Until, true); err != nil {
			return fail(err)
		}
	}

	entries, err := a.vault.AuditLog(ctx, f)
	if err != nil {
		return fail(err)
	}
	return ok("", entries)
}
