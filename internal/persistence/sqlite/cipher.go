package sqlite

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrCipherKeySize is returned when the configured token cipher key has the
// wrong length.
var ErrCipherKeySize = errors.New("sqlite: token cipher key must be 32 bytes")

// TokenCipher seals OAuth access and refresh tokens before they reach disk.
// A nil cipher stores tokens as-is.
type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher builds an XChaCha20-Poly1305 cipher from a 32-byte key.
func NewTokenCipher(key []byte) (*TokenCipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrCipherKeySize
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("sqlite: build token cipher: %w", err)
	}
	return &TokenCipher{aead: aead}, nil
}

// Seal encrypts a token for storage. The random nonce is prepended and the
// whole blob base64 encoded.
func (c *TokenCipher) Seal(plaintext string) (string, error) {
	if c == nil {
		return plaintext, nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("sqlite: generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a stored token.
func (c *TokenCipher) Open(stored string) (string, error) {
	if c == nil {
		return stored, nil
	}
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("sqlite: decode stored token: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", errors.New("sqlite: stored token too short")
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("sqlite: unseal stored token: %w", err)
	}
	return string(plaintext), nil
}
