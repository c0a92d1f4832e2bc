package secrets

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"golang.org/x/crypto/argon2"
)

const (
	// SaltSize is the length of the vault's key derivation salt.
	SaltSize = 16

	// KeySize is the length of a derived symmetric key.
	KeySize = 32

	hashSaltSize = 16

	// Upper bounds for parameters read from disk.
	maxMemory     = 1024 * 1024 // KiB, 1 GiB
	maxIterations = 64
	maxHashField  = 64
)

// KDFParams are the Argon2id cost parameters.
type KDFParams struct {
	Memory      uint32 `json:"memory"` // KiB
	Iterations  uint32 `json:"iterations"`
	Parallelism uint8  `json:"parallelism"`
}

// DefaultKDFParams returns the parameters used for new vaults: 64 MiB, 3 passes, 4 lanes.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

// IsZero reports whether no parameters were set.
func (p KDFParams) IsZero() bool {
	return p.Memory == 0 && p.Iterations == 0 && p.Parallelism == 0
}

func (p KDFParams) validate() error {
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return fmt.Errorf("invalid argon2id parameters m=%d,t=%d,p=%d", p.Memory, p.Iterations, p.Parallelism)
	}
	if p.Memory > maxMemory || p.Iterations > maxIterations {
		return fmt.Errorf("argon2id parameters m=%d,t=%d exceed limits m=%d,t=%d", p.Memory, p.Iterations, maxMemory, maxIterations)
	}
	return nil
}

// GenerateSalt returns SaltSize random bytes for key derivation.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives the vault's encryption key from a password and salt
// using the default parameters.
func DeriveKey(password, salt []byte) ([]byte, error) {
	return DeriveKeyWithParams(password, salt, DefaultKDFParams())
}

// DeriveKeyWithParams derives a KeySize key with Argon2id. The result is
// deterministic for the same password, salt and parameters.
func DeriveKeyWithParams(password, salt []byte, params KDFParams) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, KeySize), nil
}

// HashPassword produces a PHC formatted Argon2id hash with its own random salt.
func HashPassword(password []byte) (string, error) {
	return HashPasswordWithParams(password, DefaultKDFParams())
}

// HashPasswordWithParams is HashPassword with explicit cost parameters.
func HashPasswordWithParams(password []byte, params KDFParams) (string, error) {
	if err := params.validate(); err != nil {
		return "", err
	}

	salt := make([]byte, hashSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating hash salt: %w", err)
	}

	digest := argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, KeySize)
	defer Zero(digest)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.Memory, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// VerifyPassword checks password against a hash produced by HashPassword.
// A wrong password returns false with a nil error; ErrInvalidHash is only
// returned when the stored hash cannot be parsed.
func VerifyPassword(password []byte, encoded string) (bool, error) {
	params, salt, want, err := parseHash(encoded)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(want)))
	defer Zero(got)

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func parseHash(encoded string) (KDFParams, []byte, []byte, error) {
	var params KDFParams

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, digest
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, cerrors.ErrInvalidHash
	}

	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return params, nil, nil, cerrors.ErrInvalidHash
	}

	// Sscanf stops at the last verb, so the fields are printed back and
	// compared to reject trailing input and non-canonical numbers.
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, cerrors.ErrInvalidHash
	}
	if parts[3] != fmt.Sprintf("m=%d,t=%d,p=%d", params.Memory, params.Iterations, params.Parallelism) {
		return params, nil, nil, cerrors.ErrInvalidHash
	}
	if params.validate() != nil {
		return params, nil, nil, cerrors.ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 || len(salt) > maxHashField {
		return params, nil, nil, cerrors.ErrInvalidHash
	}

	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(digest) == 0 || len(digest) > maxHashField {
		return params, nil, nil, cerrors.ErrInvalidHash
	}

	return params, salt, digest, nil
}
