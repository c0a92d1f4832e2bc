// Package configs holds Clerk's process-wide settings and the optional user
// configuration file.
//
// # Settings
//
// Settings is initialized at startup:
//   - VaultDir: <user config dir>/com.clerk.app, or CLERK_VAULT_DIR when set.
//     The --vault-dir flag overrides both through SetVaultDir.
//   - UserConfigsPath: <user config dir>/clerk, home of config.toml.
//   - TempDir: where session cache files are written.
//
// # User Configuration
//
// config.toml is optional. Every field has a default, and fields missing
// from the file keep their defaults:
//
//	[keychain]
//	service = "com.clerk.app"
//	account = "clerk_user"
//
//	[session]
//	enabled = true
//
//	[kdf]
//	profile = "standard" # or "high"
//
//	[idle]
//	poll_interval = "30s"
package configs
