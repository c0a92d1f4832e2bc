// Package workflows provides high-level orchestration for Clerk commands.
//
// Workflows coordinate the vault, the credential caches and the dotenv
// helpers to implement complete user-facing features. Each workflow handles
// a single command's business logic, independent of CLI concerns like flag
// parsing, spinners, and output formatting.
//
// # Handles
//
// A Handle wraps a vault.Vault with its session and keychain caches.
// Handle.Unlock tries, in order, the session password cache, the
// remembered keychain key and the password prompt. Every workflow that
// reads or writes records unlocks through the handle, so callers only open
// it and Close it when done. Close keeps cached credentials; Lock removes
// them.
//
// # Available Workflows
//
//   - Create, Unlock, Lock, Status, Timeout: vault lifecycle
//   - Get, Set, Delete, Copy, List: single variables
//   - Export, Import, Init: dotenv files
//   - Run: start a process with an environment's variables
//   - CreateProject, ListProjects, DeleteProject and the environment
//     equivalents: hierarchy management
//   - AuditLog: filtered audit history
//
// Export, Init and Run are all-or-nothing: one undecryptable variable fails
// the command. List returns what it could decrypt plus the error.
//
// # Error Handling
//
// Workflows return sentinel errors from the internal/errors package,
// wrapped with context. Use errors.Is() to check for specific conditions:
//
//	_, err := workflows.Get(ctx, h, opts)
//	if errors.Is(err, cerrors.ErrNotFound) {
//	    // project, environment or variable is missing
//	}
package workflows
