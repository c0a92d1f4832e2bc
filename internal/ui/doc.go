// Package ui provides semantic text formatting for CLI output.
//
// Formatters render content by type (commands, paths, names, status marks).
// When colors are available, content is colorized. When NO_COLOR is set or
// the terminal doesn't support colors, text decorations are used instead.
//
// # Semantic Formatters
//
//	ui.Code.Sprint("clerk unlock --remember") // Commands
//	ui.Path.Sprint(".env")                    // File paths
//	ui.Highlight.Sprint("prod")               // Project, environment, key names
//	ui.Muted.Sprint("optional")               // De-emphasized text
//
// Ok, Fail and Hint prefix a message with ✓, ✗ and → respectively. Mask
// hides secret values unless asked to show them. Timestamp and Toggle
// render the fields of clerk status and clerk audit.
//
// # Color Behavior
//
// Colors are disabled when:
//   - NO_COLOR environment variable is set (any value)
//   - Terminal doesn't support colors (TERM=dumb, not a TTY)
//
// When colors are disabled, formatters apply text decorations:
//   - Code: `backticks`
//   - Highlight: 'single quotes'
//   - Muted: (parentheses)
//   - Others: no decoration (self-evident from context)
package ui
