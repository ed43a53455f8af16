package modules

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

var secretSuffixes = []string{"_secret", "_private_key", "_api_key"}

// IsSecretKey reports whether a bot_config value is kept encrypted at rest.
func IsSecretKey(key string) bool {
	for _, suffix := range secretSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}

	return false
}

const (
	ENCRYPTED_PREFIX string = "enc:"
	SECRET_MASK      string = "********"
)

var ErrNotEncrypted = errors.New("value is not encrypted")

type Crypto struct {
	AEAD cipher.AEAD
}

// NewCrypto derives an AES-256-GCM key from an arbitrary length secret.
func NewCrypto(secret string) (*Crypto, error) {
	key := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Crypto{
		AEAD: aead,
	}, nil
}

// Encrypt returns "enc:" followed by base64(nonce + sealed value).
func (c *Crypto) Encrypt(value string) (string, error) {
	nonce := make([]byte, c.AEAD.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.AEAD.Seal(nonce, nonce, []byte(value), nil)

	return ENCRYPTED_PREFIX + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value written by Encrypt. Values without the prefix return
// ErrNotEncrypted; a wrong secret or a tampered value fails authentication.
func (c *Crypto) Decrypt(value string) (string, error) {
	encoded, ok := strings.CutPrefix(value, ENCRYPTED_PREFIX)
	if !ok {
		return "", ErrNotEncrypted
	}

	text, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	size := c.AEAD.NonceSize()
	if len(text) < size {
		return "", errors.New("ciphertext too short")
	}

	plain, err := c.AEAD.Open(nil, text[:size], text[size:], nil)
	if err != nil {
		return "", err
	}

	return string(plain), nil
}
