package errors

import (
	"errors"
	"fmt"
)

// Vault state errors indicate the vault is missing or in the wrong state for an operation.
var (
	// ErrVaultNotFound indicates no vault metadata file exists in the vault directory.
	ErrVaultNotFound = errors.New("vault not found")

	// ErrVaultExists indicates a vault has already been created in the vault directory.
	ErrVaultExists = errors.New("vault already exists")

	// ErrVaultLocked indicates the operation needs an unlocked vault.
	ErrVaultLocked = errors.New("vault is locked")

	// ErrVaultUnlocked indicates the vault is already unlocked.
	ErrVaultUnlocked = errors.New("vault is already unlocked")
)

// Authentication errors indicate the master password could not be verified.
var (
	// ErrInvalidPassword indicates the password does not match the stored hash.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrPasswordTooShort indicates a new master password is below the minimum length.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")

	// ErrPasswordMismatch indicates the password confirmation did not match.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrInvalidHash indicates the stored password hash is structurally malformed.
	ErrInvalidHash = errors.New("invalid password hash format")
)

// Cryptographic errors indicate failures during encryption or decryption operations.
var (
	// ErrEncryptFailed indicates a value could not be encrypted.
	ErrEncryptFailed = errors.New("encryption failed")

	// ErrDecryptFailed indicates a value could not be decrypted. The cause
	// (wrong key, wrong associated data, tampered data) is never reported.
	ErrDecryptFailed = errors.New("decryption failed")

	// ErrInvalidKeyLength indicates the symmetric key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid symmetric key length")
)

// Record errors indicate a referenced record is missing or conflicts with an existing one.
var (
	// ErrNotFound indicates a record could not be located.
	ErrNotFound = errors.New("not found")

	// ErrProjectNotFound indicates the referenced project does not exist. It matches ErrNotFound.
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)

	// ErrEnvironmentNotFound indicates the referenced environment does not exist. It matches ErrNotFound.
	ErrEnvironmentNotFound = fmt.Errorf("environment %w", ErrNotFound)

	// ErrSecretNotFound indicates the referenced variable does not exist. It matches ErrNotFound.
	ErrSecretNotFound = fmt.Errorf("variable %w", ErrNotFound)

	// ErrConflict indicates a name or key is already taken within its scope.
	ErrConflict = errors.New("already exists")

	// ErrHasChildren indicates a record still owns children and deletion was not forced.
	ErrHasChildren = errors.New("record has children")
)

// Credential cache errors indicate issues reading or writing cached credentials.
var (
	// ErrNoCredential indicates no cached credential exists. This is a normal state.
	ErrNoCredential = errors.New("no cached credential")

	// ErrCacheUnavailable indicates the credential store could not be reached.
	ErrCacheUnavailable = errors.New("credential store unavailable")

	// ErrMalformedCredential indicates a cached credential could not be decoded.
	ErrMalformedCredential = errors.New("malformed cached credential")

	// ErrCredentialMismatch indicates a cached key does not open this vault.
	ErrCredentialMismatch = errors.New("cached key belongs to a different vault")
)

// Storage errors indicate failures in the underlying database.
var (
	// ErrStorage indicates the storage engine returned an unexpected error.
	ErrStorage = errors.New("storage error")

	// ErrMigration indicates a schema migration could not be applied.
	ErrMigration = errors.New("migration failed")
)

// Input errors indicate invalid user input.
var (
	// ErrInvalidLockTimeout indicates a lock timeout outside 0..1440 minutes.
	ErrInvalidLockTimeout = errors.New("lock timeout must be between 0 and 1440 minutes")

	// ErrInvalidDateFormat indicates a date string could not be parsed.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrInvalidName indicates an empty or otherwise unusable name or key.
	ErrInvalidName = errors.New("invalid name")

	// ErrConfirmationRequired indicates a destructive operation needs --force.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrNoCommand indicates run was invoked without a command to execute.
	ErrNoCommand = errors.New("no command given")

	// ErrFileExists indicates an output file is already present and overwriting was not requested.
	ErrFileExists = errors.New("file already exists")

	// ErrInvalidDotenv indicates a dotenv file could not be parsed.
	ErrInvalidDotenv = errors.New("invalid dotenv file")
)
