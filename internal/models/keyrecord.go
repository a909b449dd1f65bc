// Package models defines the vault engine's persisted data models.
package models

import "time"

// EncryptionKeyRecord holds per-user key material metadata. Exactly one
// active record exists per user. The raw key and password are never
// persisted; the verifier only allows checking a supplied password.
type EncryptionKeyRecord struct {
	// UserID is the owner, unique across records.
	UserID string
	// Salt is random, generated at setup, and replaced (never reused) on
	// rotation.
	Salt []byte
	// Verifier is a hash of the derived key used to validate a supplied
	// password without decrypting any data.
	Verifier []byte
	// Algorithm identifies the symmetric cipher (e.g. "AES-256-GCM").
	Algorithm string

	CreatedAt time.Time
	// RotatedAt is nil until the first key rotation.
	RotatedAt *time.Time
}
