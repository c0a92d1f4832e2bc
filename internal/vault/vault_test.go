package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/clerk-dev/clerk/internal/credcache"
	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastKDF = secrets.KDFParams{Memory: 1024, Iterations: 1, Parallelism: 1}

const testPassword = "Sup3rSecret!"

type testVault struct {
	*Vault
	keychain *credcache.KeychainCache
	session  *credcache.SessionCache
}

func newTestVault(t *testing.T) *testVault {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "vault")

	keychain := credcache.NewKeychainCache(keyring.NewArrayKeyring(nil), "")
	session := credcache.NewSessionCache(dir, t.TempDir())

	v := New(dir, Options{
		KDFParams: fastKDF,
		Keychain:  keychain,
		Session:   session,
	})
	t.Cleanup(func() { _ = v.Lock(context.Background()) })

	return &testVault{Vault: v, keychain: keychain, session: session}
}

func createdVault(t *testing.T) *testVault {
	t.Helper()
	v := newTestVault(t)
	require.NoError(t, v.Create(context.Background(), []byte(testPassword)))
	return v
}

func TestCreate_TransitionsToUnlocked(t *testing.T) {
	v := newTestVault(t)
	assert.Equal(t, Uninitialized, v.State())
	assert.False(t, v.Exists())

	require.NoError(t, v.Create(context.Background(), []byte(testPassword)))

	assert.Equal(t, Unlocked, v.State())
	assert.FileExists(t, filepath.Join(v.Dir(), MetadataFileName))
	assert.FileExists(t, filepath.Join(v.Dir(), DatabaseFileName))

	meta, err := loadMetadata(v.Dir())
	require.NoError(t, err)
	assert.Len(t, meta.Salt, secrets.SaltSize)
	assert.NotEmpty(t, meta.VaultID)
	assert.Equal(t, fastKDF, meta.KDF)
	assert.Contains(t, meta.PasswordHash, "$argon2id$")
}

func TestCreate_RefusesExistingVault(t *testing.T) {
	v := createdVault(t)
	ctx := context.Background()

	assert.ErrorIs(t, v.Create(ctx, []byte(testPassword)), cerrors.ErrVaultExists)

	require.NoError(t, v.Lock(ctx))
	assert.ErrorIs(t, v.Create(ctx, []byte("another-password")), cerrors.ErrVaultExists)

	// Metadata must be untouched: the original password still works.
	require.NoError(t, v.Unlock(ctx, []byte(testPassword), UnlockOptions{}))
}

func TestCreate_ShortPassword(t *testing.T) {
	v := newTestVault(t)
	assert.ErrorIs(t, v.Create(context.Background(), []byte("short")), cerrors.ErrPasswordTooShort)
	assert.Equal(t, Uninitialized, v.State())
}

func TestUnlock_Scenario(t *testing.T) {
	v := createdVault(t)
	ctx := context.Background()

	require.NoError(t, v.Lock(ctx))
	assert.Equal(t, Locked, v.State())

	require.NoError(t, v.Unlock(ctx, []byte(testPassword), UnlockOptions{}))
	assert.Equal(t, Unlocked, v.State())
	assert.ErrorIs(t, v.Unlock(ctx, []byte(testPassword), UnlockOptions{}), cerrors.ErrVaultUnlocked)

	require.NoError(t, v.Lock(ctx))

	// A cached session password exists when the wrong password is tried.
	require.NoError(t, v.session.Store(ctx, []byte(testPassword)))

	err := v.Unlock(ctx, []byte("wrong"), UnlockOptions{})
	assert.ErrorIs(t, err, cerrors.ErrInvalidPassword)
	assert.Equal(t, Locked, v.State())

	_, err = v.session.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrNoCredential, "session cache must be cleared")
}

func TestUnlock_NoVault(t *testing.T) {
	v := newTestVault(t)
	assert.ErrorIs(t, v.Unlock(context.Background(), []byte(testPassword), UnlockOptions{}), cerrors.ErrVaultNotFound)
	assert.ErrorIs(t, v.AutoUnlock(context.Background()), cerrors.ErrVaultNotFound)
}

func TestAutoUnlock_WithoutRememberFails(t *testing.T) {
	v := createdVault(t)
	ctx := context.Background()

	require.NoError(t, v.Lock(ctx))
	assert.ErrorIs(t, v.AutoUnlock(ctx), cerrors.ErrNoCredential)
	assert.Equal(t, Locked, v.State())
}

func TestAutoUnlock_AfterRemember(t *testing.T) {
	v := createdVault(t)
	ctx := context.Background()

	p, err := v.CreateProject(ctx, "Web", "")
	require.NoError(t, err)
	env, err := v.CreateEnvironment(ctx, p.ID, "prod", "")
	require.NoError(t, err)
	_, err = v.CreateSecret(ctx, env.ID, "API_KEY", []byte("abc123"), "")
	require.NoError(t, err)

	require.NoError(t, v.Lock(ctx))
	require.NoError(t, v.Unlock(ctx, []byte(testPassword), UnlockOptions{Remember: true}))

	cached, err := v.keychain.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, secrets.KeySize)

	// Simulate a new process: drop in-memory state without clearing the keychain.
	other := New(v.Dir(), Options{KDFParams: fastKDF, Keychain: v.keychain})
	require.NoError(t, other.AutoUnlock(ctx))
	defer other.Lock(ctx)

	s, err := other.SecretByKey(ctx, env.ID, "API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "abc123", string(s.Value))

	// Lock clears the keychain entry.
	require.NoError(t, other.Lock(ctx))
	_, err = v.keychain.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrNoCredential)
}

func TestAutoUnlock_RejectsKeyOfAnotherVault(t *testing.T) {
	ctx := context.Background()
	shared := credcache.NewKeychainCache(keyring.NewArrayKeyring(nil), "")

	dirA := filepath.Join(t.TempDir(), "a")
	a := New(dirA, Options{KDFParams: fastKDF, Keychain: shared})
	require.NoError(t, a.Create(ctx, []byte(testPassword)))
	require.NoError(t, a.Close())
	require.NoError(t, a.Unlock(ctx, []byte(testPassword), UnlockOptions{Remember: true}))
	require.NoError(t, a.Close())

	dirB := filepath.Join(t.TempDir(), "b")
	b := New(dirB, Options{KDFParams: fastKDF, Keychain: shared})
	require.NoError(t, b.Create(ctx, []byte("other-password")))
	require.NoError(t, b.Close())
	assert.False(t, b.Remembered(ctx))

	assert.ErrorIs(t, b.AutoUnlock(ctx), cerrors.ErrCredentialMismatch)
	assert.Equal(t, Locked, b.State())

	_, err := shared.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrNoCredential, "a mismatched key must be removed")

	// B still opens with its own password and its records stay readable.
	require.NoError(t, b.Unlock(ctx, []byte("other-password"), UnlockOptions{}))
	p, err := b.CreateProject(ctx, "Web", "")
	require.NoError(t, err)
	env, err := b.CreateEnvironment(ctx, p.ID, "prod", "")
	require.NoError(t, err)
	_, err = b.CreateSecret(ctx, env.ID, "API_KEY", []byte("abc123"), "")
	require.NoError(t, err)
	require.NoError(t, b.Lock(ctx))

	require.NoError(t, b.Unlock(ctx, []byte("other-password"), UnlockOptions{}))
	defer b.Lock(ctx)
	got, err := b.SecretByKey(ctx, env.ID, "API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "abc123", string(got.Value))
}

func TestAutoUnlock_BackfillsKeyCheck(t *testing.T) {
	v := createdVault(t)
	ctx := context.Background()
	require.NoError(t, v.Lock(ctx))

	meta, err := loadMetadata(v.Dir())
	require.NoError(t, err)
	require.NotEmpty(t, meta.KeyCheck)
	meta.KeyCheck = nil
	require.NoError(t, replaceMetadata(v.Dir(), meta))

	require.NoError(t, v.Unlock(ctx, []byte(testPassword), UnlockOptions{Remember: true}))
	require.NoError(t, v.Close())

	meta, err = loadMetadata(v.Dir())
	require.NoError(t, err)
	assert.NotEmpty(t, meta.KeyCheck, "a password unlock records the key check")
	assert.True(t, v.Remembered(ctx))

	require.NoError(t, v.AutoUnlock(ctx))
	assert.Equal(t, Unlocked, v.State())
}

func TestLock_Idempotent(t *testing.T) {
	v := createdVault(t)
	ctx := context.Background()

	require.NoError(t, v.session.Store(ctx, []byte(testPassword)))

	require.NoError(t, v.Lock(ctx))
	require.NoError(t, v.Lock(ctx))
	assert.Equal(t, Locked, v.State())

	_, err := v.session.Load(ctx)
	assert.NoError(t, err, "lock leaves the session cache alone")

	_, err = v.Projects(ctx)
	assert.ErrorIs(t, err, cerrors.ErrVaultLocked)
}

func TestLock_ZeroesKey(t *testing.T) {
	v := createdVault(t)
	key := v.key
	require.NoError(t, v.Lock(context.Background()))

	for _, b := range key {
		require.Zero(t, b)
	}
	assert.Nil(t, v.key)
}

func TestLockTimeout(t *testing.T) {
	v := createdVault(t)
	ctx := context.Background()

	minutes, err := v.LockTimeout(ctx)
	require.NoError(t, err)
	assert.Zero(t, minutes)

	assert.ErrorIs(t, v.SetLockTimeout(ctx, -1), cerrors.ErrInvalidLockTimeout)
	assert.ErrorIs(t, v.SetLockTimeout(ctx, 1441), cerrors.ErrInvalidLockTimeout)
	require.NoError(t, v.SetLockTimeout(ctx, 1440))
	require.NoError(t, v.SetLockTimeout(ctx, 5))

	locked, err := v.LockIfIdle(ctx, time.Now())
	require.NoError(t, err)
	assert.False(t, locked)

	locked, err = v.LockIfIdle(ctx, time.Now().Add(6*time.Minute))
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, Locked, v.State())

	locked, err = v.LockIfIdle(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, locked, "already locked")
}

func TestLockIfIdle_Disabled(t *testing.T) {
	v := createdVault(t)
	locked, err := v.LockIfIdle(context.Background(), time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestStatus(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	st, err := v.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "uninitialized", st.StateName)

	require.NoError(t, v.Create(ctx, []byte(testPassword)))
	p, _ := v.CreateProject(ctx, "Web", "")
	_, _ = v.CreateEnvironment(ctx, p.ID, "prod", "")

	st, err = v.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, Unlocked, st.State)
	assert.Equal(t, 1, st.Counts.Projects)
	assert.Equal(t, 1, st.Counts.Environments)
	assert.NotEmpty(t, st.VaultID)

	require.NoError(t, v.Lock(ctx))
	st, err = v.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "locked", st.StateName)
	assert.Zero(t, st.Counts.Projects)
}

func TestLoadMetadata_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFileName), []byte("{nope"), 0600))

	_, err := loadMetadata(dir)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, cerrors.ErrVaultNotFound)
}

func TestClose_KeepsKeychain(t *testing.T) {
	v := createdVault(t)
	ctx := context.Background()

	require.NoError(t, v.Lock(ctx))
	require.NoError(t, v.Unlock(ctx, []byte(testPassword), UnlockOptions{Remember: true}))

	require.NoError(t, v.Close())
	assert.Equal(t, Locked, v.State())

	_, err := v.keychain.Load(ctx)
	require.NoError(t, err, "close must not clear the keychain")

	require.NoError(t, v.AutoUnlock(ctx))
	assert.Equal(t, Unlocked, v.State())
}
