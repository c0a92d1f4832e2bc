package secrets

import (
	"crypto/rand"
	"fmt"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// NonceSize is the length of the random nonce prefixed to every ciphertext.
const NonceSize = chacha20poly1305.NonceSize

// Encrypt seals plaintext under key with ChaCha20-Poly1305, authenticating
// aad without encrypting it. The output is nonce || ciphertext || tag.
func Encrypt(key, plaintext, aad []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, cerrors.ErrInvalidKeyLength
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrEncryptFailed, err)
	}

	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %v", cerrors.ErrEncryptFailed, err)
	}

	return aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Decrypt opens a blob produced by Encrypt. A short blob, a wrong key, a
// wrong aad and a tampered ciphertext all return ErrDecryptFailed.
func Decrypt(key, blob, aad []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, cerrors.ErrInvalidKeyLength
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, cerrors.ErrDecryptFailed
	}

	if len(blob) < NonceSize+aead.Overhead() {
		return nil, cerrors.ErrDecryptFailed
	}

	plaintext, err := aead.Open(nil, blob[:NonceSize], blob[NonceSize:], aad)
	if err != nil {
		return nil, cerrors.ErrDecryptFailed
	}

	return plaintext, nil
}
