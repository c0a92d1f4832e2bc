package credcache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
	cerrors "github.com/clerk-dev/clerk/internal/errors"
)

const (
	// DefaultService is the OS credential store service name.
	DefaultService = "com.clerk.app"

	// DefaultAccount is the OS credential store account name.
	DefaultAccount = "clerk_user"
)

// SecureStore is the subset of keyring.Keyring used by KeychainCache.
type SecureStore interface {
	Get(key string) (keyring.Item, error)
	Set(item keyring.Item) error
	Remove(key string) error
}

// OpenKeyring opens the platform credential store for service.
func OpenKeyring(service string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:                    service,
		KeychainTrustApplication:       true,
		KeychainSynchronizable:         false,
		KeychainAccessibleWhenUnlocked: true,
		LibSecretCollectionName:        "login",
		KWalletAppID:                   service,
		KWalletFolder:                  service,
		WinCredPrefix:                  service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.WinCredBackend,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrCacheUnavailable, err)
	}
	return ring, nil
}

// KeychainCache keeps the derived vault key, base64 encoded, in the OS
// credential store under a fixed account.
type KeychainCache struct {
	store   SecureStore
	account string
}

// NewKeychainCache returns a cache over store. An empty account uses DefaultAccount.
func NewKeychainCache(store SecureStore, account string) *KeychainCache {
	if account == "" {
		account = DefaultAccount
	}
	return &KeychainCache{store: store, account: account}
}

// Load returns the cached key, or ErrNoCredential when there is none.
func (k *KeychainCache) Load(_ context.Context) ([]byte, error) {
	item, err := k.store.Get(k.account)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, cerrors.ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading key: %v", cerrors.ErrCacheUnavailable, err)
	}

	key, err := base64.StdEncoding.DecodeString(string(item.Data))
	if err != nil || len(key) == 0 {
		return nil, cerrors.ErrMalformedCredential
	}
	return key, nil
}

// Store saves key.
func (k *KeychainCache) Store(_ context.Context, key []byte) error {
	err := k.store.Set(keyring.Item{
		Key:         k.account,
		Data:        []byte(base64.StdEncoding.EncodeToString(key)),
		Label:       "Clerk vault key",
		Description: "Derived encryption key for the Clerk vault",
	})
	if err != nil {
		return fmt.Errorf("%w: storing key: %v", cerrors.ErrCacheUnavailable, err)
	}
	return nil
}

// Clear deletes the cached key. A missing entry is not an error.
func (k *KeychainCache) Clear(_ context.Context) error {
	err := k.store.Remove(k.account)
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return fmt.Errorf("%w: removing key: %v", cerrors.ErrCacheUnavailable, err)
}
