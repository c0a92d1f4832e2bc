package credcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/99designs/keyring"
	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) Get(string) (keyring.Item, error) { return keyring.Item{}, errors.New("dbus down") }
func (brokenStore) Set(keyring.Item) error           { return errors.New("dbus down") }
func (brokenStore) Remove(string) error              { return errors.New("dbus down") }

func TestKeychainCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewKeychainCache(keyring.NewArrayKeyring(nil), "")

	_, err := cache.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrNoCredential)

	key := []byte("0123456789abcdef0123456789abcdef")
	require.NoError(t, cache.Store(ctx, key))

	got, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, key, got)

	require.NoError(t, cache.Clear(ctx))
	require.NoError(t, cache.Clear(ctx), "clearing twice is fine")

	_, err = cache.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrNoCredential)
}

func TestKeychainCache_StoresBase64UnderAccount(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	cache := NewKeychainCache(ring, "")

	require.NoError(t, cache.Store(context.Background(), []byte{0xde, 0xad}))

	item, err := ring.Get(DefaultAccount)
	require.NoError(t, err)
	assert.Equal(t, "3q0=", string(item.Data))
}

func TestKeychainCache_Malformed(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{{Key: DefaultAccount, Data: []byte("not base64!")}})
	cache := NewKeychainCache(ring, "")

	_, err := cache.Load(context.Background())
	assert.ErrorIs(t, err, cerrors.ErrMalformedCredential)
}

func TestKeychainCache_Unavailable(t *testing.T) {
	ctx := context.Background()
	cache := NewKeychainCache(brokenStore{}, "")

	_, err := cache.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrCacheUnavailable)
	assert.NotErrorIs(t, err, cerrors.ErrNoCredential)

	assert.ErrorIs(t, cache.Store(ctx, []byte("k")), cerrors.ErrCacheUnavailable)
	assert.ErrorIs(t, cache.Clear(ctx), cerrors.ErrCacheUnavailable)
}

func TestSessionCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	vaultDir := t.TempDir()
	cache := NewSessionCache(vaultDir, t.TempDir())

	_, err := cache.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrNoCredential)

	require.NoError(t, cache.Store(ctx, []byte("pa|ss")))

	got, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pa|ss", string(got))

	data, err := os.ReadFile(cache.Path())
	require.NoError(t, err)
	assert.Equal(t, "pa|ss|"+vaultDir, string(data))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(cache.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	require.NoError(t, cache.Clear(ctx))
	require.NoError(t, cache.Clear(ctx))
	_, err = os.Stat(cache.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestSessionCache_PathIsPerVault(t *testing.T) {
	tmp := t.TempDir()
	a := NewSessionCache(filepath.Join(tmp, "a"), tmp)
	b := NewSessionCache(filepath.Join(tmp, "b"), tmp)
	again := NewSessionCache(filepath.Join(tmp, "a", "..", "a"), tmp)

	assert.NotEqual(t, a.Path(), b.Path())
	assert.Equal(t, a.Path(), again.Path())
	assert.Contains(t, filepath.Base(a.Path()), ".clerk_session-")
}

func TestSessionCache_VaultMismatchIsAbsent(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	cache := NewSessionCache(filepath.Join(tmp, "vault"), tmp)

	require.NoError(t, os.WriteFile(cache.Path(), []byte("secret|/somewhere/else"), 0600))

	_, err := cache.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrNoCredential)

	_, err = os.Stat(cache.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestSessionCache_VaultPathWithDelimiter(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	cache := NewSessionCache(filepath.Join(tmp, "a|b", "vault"), tmp)

	require.NoError(t, cache.Store(ctx, []byte("x|y")))

	got, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("x|y"), got)
}

func TestSessionCache_EmptyPasswordIsRemoved(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	vaultDir := filepath.Join(tmp, "vault")
	cache := NewSessionCache(vaultDir, tmp)

	require.NoError(t, os.WriteFile(cache.Path(), []byte("|"+vaultDir), 0600))

	_, err := cache.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrNoCredential)

	_, err = os.Stat(cache.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestSessionCache_StoreReplacesSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	ctx := context.Background()
	tmp := t.TempDir()
	cache := NewSessionCache(filepath.Join(tmp, "vault"), tmp)

	target := filepath.Join(tmp, "victim")
	require.NoError(t, os.WriteFile(target, []byte("original"), 0644))
	require.NoError(t, os.Symlink(target, cache.Path()))

	require.NoError(t, cache.Store(ctx, []byte("secret")))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	info, err := os.Lstat(cache.Path())
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), got)

	leftovers, err := filepath.Glob(filepath.Join(tmp, sessionFilePrefix+"*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSessionCache_LoadRefusesSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	ctx := context.Background()
	tmp := t.TempDir()
	vaultDir := filepath.Join(tmp, "vault")
	cache := NewSessionCache(vaultDir, tmp)

	planted := filepath.Join(tmp, "planted")
	require.NoError(t, os.WriteFile(planted, []byte("attacker|"+vaultDir), 0600))
	require.NoError(t, os.Symlink(planted, cache.Path()))

	_, err := cache.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrNoCredential)

	_, err = os.Lstat(cache.Path())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(planted)
	assert.NoError(t, err)
}

func TestSessionCache_LoadRefusesSharedFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are synthetic on windows")
	}
	ctx := context.Background()
	tmp := t.TempDir()
	vaultDir := filepath.Join(tmp, "vault")
	cache := NewSessionCache(vaultDir, tmp)

	require.NoError(t, os.WriteFile(cache.Path(), []byte("secret|"+vaultDir), 0600))
	require.NoError(t, os.Chmod(cache.Path(), 0644))

	_, err := cache.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrNoCredential)

	_, err = os.Stat(cache.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestSessionCache_MalformedIsRemoved(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	cache := NewSessionCache(filepath.Join(tmp, "vault"), tmp)

	require.NoError(t, os.WriteFile(cache.Path(), []byte("no-delimiter"), 0600))

	_, err := cache.Load(ctx)
	assert.ErrorIs(t, err, cerrors.ErrNoCredential)

	_, err = os.Stat(cache.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestCacheImplementations(t *testing.T) {
	var _ Cache = (*KeychainCache)(nil)
	var _ Cache = (*SessionCache)(nil)
}
