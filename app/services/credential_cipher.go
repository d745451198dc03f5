package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

// SealedCredentialPrefix marks values produced by CredentialCipher.Seal
const SealedCredentialPrefix = "enc:v1:"

var ErrCredentialCorrupted = errors.New("sealed credential cannot be opened")

// CredentialCipher protects tenant auth tokens at rest
type CredentialCipher interface {
	Seal(plaintext string) (string, error)
	Open(stored string) (string, error)
	Enabled() bool
}

// NewCredentialCipher returns a secretbox cipher keyed by sha256(key), or a
// pass-through cipher when key is empty.
func NewCredentialCipher(key string) CredentialCipher {
	if key == "" {
		return plainCredentialCipher{}
	}
	return &secretboxCredentialCipher{key: sha256.Sum256([]byte(key))}
}

type secretboxCredentialCipher struct {
	key [32]byte
}

func (c *secretboxCredentialCipher) Enabled() bool { return true }

func (c *secretboxCredentialCipher) Seal(plaintext string) (string, error) {
	if plaintext == "" || strings.HasPrefix(plaintext, SealedCredentialPrefix) {
		return plaintext, nil
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key)
	return SealedCredentialPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *secretboxCredentialCipher) Open(stored string) (string, error) {
	encoded, ok := strings.CutPrefix(stored, SealedCredentialPrefix)
	if !ok {
		return stored, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < 24 {
		return "", ErrCredentialCorrupted
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])
	opened, ok := secretbox.Open(nil, raw[24:], &nonce, &c.key)
	if !ok {
		return "", ErrCredentialCorrupted
	}
	return string(opened), nil
}

type plainCredentialCipher struct{}

func (plainCredentialCipher) Enabled() bool { return false }

func (plainCredentialCipher) Seal(plaintext string) (string, error) { return plaintext, nil }

// Open cannot recover sealed values without a key
func (plainCredentialCipher) Open(stored string) (string, error) {
	if strings.HasPrefix(stored, SealedCredentialPrefix) {
		return "", ErrCredentialCorrupted
	}
	return stored, nil
}
