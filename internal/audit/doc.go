// Package audit provides the audit trail model for Clerk operations.
//
// Every create, update and delete of a project, environment or variable is
// recorded in the vault's audit_log table. Cascaded deletes record one
// entry per removed child.
//
// # Entry Format
//
// Each entry contains:
//   - Timestamp (Unix seconds)
//   - Operation type (create, update, delete, copy)
//   - Entity type, id and name
//   - Optional JSON details (never a secret value)
//
// # Usage
//
//	entry := audit.New(audit.OpCreate, audit.EntityVariable, id, key, map[string]any{
//	    "environment_id": envID,
//	})
//	audit.Log(ctx, store, log, entry)
//
// # Failure Handling
//
// Audit logging is best-effort. If recording fails the operation continues
// and a warning is logged.
//
// # Querying
//
// Filter is a typed set of criteria. Stores turn it into a parameterized
// WHERE clause with Filter.Where.
package audit
