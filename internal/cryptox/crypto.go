// Package cryptox implements the vault's key derivation and authenticated
// encryption primitives: argon2id for turning a password and salt into a
// symmetric key, SHA-256 for the password verifier, and AES-256-GCM with a
// detached authentication tag for file contents.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/taxpilot/docvault/internal/common"
	"golang.org/x/crypto/argon2"
)

// AlgorithmAES256GCM is the cipher identifier persisted with key and file
// records.
const AlgorithmAES256GCM = "AES-256-GCM"

const (
	// KeySize is the derived key length in bytes (AES-256).
	KeySize = 32
	// SaltSize is the per-user salt length in bytes.
	SaltSize = 32
	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag length in bytes.
	TagSize = 16
)

// argon2id cost parameters. Fixed deliberately: changing them silently
// would break verification of existing key records.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// DeriveKey derives a KeySize-byte symmetric key from a password and salt
// using argon2id. Deterministic: the same inputs always yield the same key.
// The caller owns the result and should wipe it when done.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, KeySize)
}

// MakeVerifier returns the value stored alongside the salt to validate a
// supplied password without decrypting any data. It is a hash of the
// derived key, so neither the password nor the key can be reconstructed
// from it.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// CheckVerifier reports whether candidate key material matches the stored
// verifier, in constant time.
func CheckVerifier(verifier, key []byte) bool {
	candidate := MakeVerifier(key)
	return subtle.ConstantTimeCompare(verifier, candidate) == 1
}

// Encrypt seals plaintext with AES-256-GCM under key, using a freshly
// generated random nonce. The authentication tag is detached from the
// ciphertext so the two can be persisted separately.
func Encrypt(plaintext, key []byte) (ciphertext, tag, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, nil, err
	}

	nonce = common.GenerateRandByteArray(NonceSize)

	sealed := aesgcm.Seal(nil, nonce, plaintext, nil)
	n := len(sealed) - TagSize
	return sealed[:n], sealed[n:], nonce, nil
}

// Decrypt opens a detached-tag AES-256-GCM ciphertext and verifies its
// authentication tag. A failure means either the wrong key or tampered
// ciphertext; the two cases are indistinguishable and both surface as
// common.ErrorDecryptionFailed.
func Decrypt(ciphertext, tag, nonce, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, common.ErrorDecryptionFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}
	return aesgcm, nil
}
