// Package common defines shared constants and sentinel errors used across
// the vault engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Validation errors.
	ErrorInvalidInput = errors.New("invalid input")

	// Key lifecycle errors.
	ErrorAlreadyInitialized      = errors.New("encryption already initialized")
	ErrorEncryptionNotConfigured = errors.New("encryption not configured")
	ErrorInvalidCredentials      = errors.New("invalid credentials")
	ErrorRotationInProgress      = errors.New("key rotation in progress")

	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Blob storage errors. Never swallowed: a failed read or write means
	// real data risk and must reach the caller.
	ErrorStorageWrite = errors.New("storage write error")
	ErrorStorageRead  = errors.New("storage read error")

	// Cryptographic errors. DecryptionFailed intentionally covers both a
	// wrong password and tampered ciphertext so that error codes cannot be
	// used as a password oracle.
	ErrorDecryptionFailed = errors.New("decryption failed")
	ErrorIntegrity        = errors.New("integrity error")

	// Generic internal failure.
	ErrorInternal = errors.New("internal error")
)
