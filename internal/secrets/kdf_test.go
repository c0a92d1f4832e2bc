package secrets

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
)

// testParams keeps Argon2id cheap enough for unit tests.
var testParams = KDFParams{Memory: 1024, Iterations: 1, Parallelism: 1}

func TestGenerateSalt_LengthAndUniqueness(t *testing.T) {
	a, err := GenerateSalt()
	if err != nil {
		t.Fatalf("Failed to generate salt: %v", err)
	}
	b, err := GenerateSalt()
	if err != nil {
		t.Fatalf("Failed to generate salt: %v", err)
	}

	if len(a) != SaltSize {
		t.Errorf("Expected %d byte salt, got %d", SaltSize, len(a))
	}
	if bytes.Equal(a, b) {
		t.Errorf("Two generated salts were identical")
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, SaltSize)

	k1, err := DeriveKeyWithParams([]byte("Sup3rSecret!"), salt, testParams)
	if err != nil {
		t.Fatalf("Failed to derive key: %v", err)
	}
	k2, err := DeriveKeyWithParams([]byte("Sup3rSecret!"), salt, testParams)
	if err != nil {
		t.Fatalf("Failed to derive key: %v", err)
	}

	if len(k1) != KeySize {
		t.Fatalf("Expected %d byte key, got %d", KeySize, len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Errorf("Same password and salt produced different keys")
	}
}

func TestDeriveKey_VariesWithInputs(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, SaltSize)
	otherSalt := bytes.Repeat([]byte{8}, SaltSize)

	base, _ := DeriveKeyWithParams([]byte("password-one"), salt, testParams)
	otherPassword, _ := DeriveKeyWithParams([]byte("password-two"), salt, testParams)
	otherSaltKey, _ := DeriveKeyWithParams([]byte("password-one"), otherSalt, testParams)

	if bytes.Equal(base, otherPassword) {
		t.Errorf("Different passwords produced the same key")
	}
	if bytes.Equal(base, otherSaltKey) {
		t.Errorf("Different salts produced the same key")
	}
}

func TestDeriveKey_DefaultParams(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, SaltSize)
	key, err := DeriveKey([]byte("Sup3rSecret!"), salt)
	if err != nil {
		t.Fatalf("Failed to derive key with default params: %v", err)
	}
	if len(key) != KeySize {
		t.Errorf("Expected %d byte key, got %d", KeySize, len(key))
	}
}

func TestDeriveKey_RejectsBadSalt(t *testing.T) {
	if _, err := DeriveKeyWithParams([]byte("pw"), []byte("short"), testParams); err == nil {
		t.Errorf("Expected error for short salt")
	}
}

func TestDeriveKey_RejectsExcessiveParams(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, SaltSize)
	for _, p := range []KDFParams{
		{Memory: maxMemory + 1, Iterations: 1, Parallelism: 1},
		{Memory: 1024, Iterations: maxIterations + 1, Parallelism: 1},
	} {
		if _, err := DeriveKeyWithParams([]byte("pw"), salt, p); err == nil {
			t.Errorf("DeriveKeyWithParams(%+v) should fail", p)
		}
	}
}

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPassword([]byte("Sup3rSecret!"))
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$") {
		t.Errorf("Unexpected hash prefix: %s", hash)
	}
}

func TestHashPassword_UsesFreshSalt(t *testing.T) {
	h1, _ := HashPasswordWithParams([]byte("same"), testParams)
	h2, _ := HashPasswordWithParams([]byte("same"), testParams)
	if h1 == h2 {
		t.Errorf("Hashing the same password twice produced identical hashes")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPasswordWithParams([]byte("Sup3rSecret!"), testParams)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	ok, err := VerifyPassword([]byte("Sup3rSecret!"), hash)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !ok {
		t.Errorf("Expected correct password to verify")
	}

	ok, err = VerifyPassword([]byte("wrong"), hash)
	if err != nil {
		t.Fatalf("Wrong password should not be an error, got: %v", err)
	}
	if ok {
		t.Errorf("Expected wrong password to fail verification")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	cases := []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$ZGlnZXN0",
		"$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=0,t=0,p=0$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$ZGlnZXN0",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
		"$argon2id$v=19x$m=1024,t=1,p=1$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=1024,t=1,p=1x$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=1024,t=1,p=1,extra$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=01024,t=1,p=1$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=1024,t=100000,p=1$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=1024,t=1,p=300$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$" + strings.Repeat("A", 200),
	}

	for _, tc := range cases {
		ok, err := VerifyPassword([]byte("pw"), tc)
		if !errors.Is(err, cerrors.ErrInvalidHash) {
			t.Errorf("Hash %q: expected ErrInvalidHash, got %v", tc, err)
		}
		if ok {
			t.Errorf("Hash %q: malformed hash must not verify", tc)
		}
	}
}
