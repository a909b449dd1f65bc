package files

import (
	"context"

	"github.com/taxpilot/docvault/internal/models"
)

// Repository persists encrypted file records.
type Repository interface {
	// Create inserts a new record (normally in pending state).
	Create(ctx context.Context, file *models.EncryptedFileRecord) error
	// GetByID returns the record or common.ErrorNotFound. Ownership checks
	// belong to the caller.
	GetByID(ctx context.Context, id string) (*models.EncryptedFileRecord, error)
	// ListByUser returns all of the user's records, oldest first.
	ListByUser(ctx context.Context, userID string) ([]*models.EncryptedFileRecord, error)
	// MarkStored transitions the record to stored and sets its stored size.
	MarkStored(ctx context.Context, id string, storedSize int64) error
	// MarkFailed transitions the record to failed.
	MarkFailed(ctx context.Context, id string) error
	// UpdateCiphertext points the record at freshly rotated ciphertext:
	// new storage path, nonce, tag, algorithm and stored size.
	UpdateCiphertext(ctx context.Context, id, storagePath string, nonce, authTag []byte, algorithm string, storedSize int64) error
	// Delete removes the record.
	Delete(ctx context.Context, id string) error
	// StatsByUser aggregates counts and sizes over the user's records.
	StatsByUser(ctx context.Context, userID string) (*models.UsageStats, error)
}
