// Package utils provides shared helpers for the Clerk CLI.
//
// # Dotenv
//
// ParseDotenv and FormatDotenv read and write .env content through
// github.com/joho/godotenv. EnvironList turns entries into the KEY=value
// form a child process expects.
//
// # Filesystem Utilities
//
//   - WriteSecretFile: writes owner-only files, refusing to overwrite
//     unless asked
//   - FileExists
//
// # I/O Utilities
//
//   - ReadStdin: reads a piped value from standard input
//
// # Terminal Utilities
//
// Hidden password prompts and terminal detection:
//   - ReadPassphrase, ReadPassphraseFromTTY
//   - IsTerminal, IsTTYAvailable
package utils
