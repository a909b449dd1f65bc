package keys

import (
	"context"

	"github.com/taxpilot/docvault/internal/models"
)

// Repository persists one EncryptionKeyRecord per user.
type Repository interface {
	// Create inserts the record. Fails if one already exists for the user.
	Create(ctx context.Context, rec *models.EncryptionKeyRecord) error
	// Get returns the user's record or common.ErrorNotFound.
	Get(ctx context.Context, userID string) (*models.EncryptionKeyRecord, error)
	// Replace swaps salt, verifier, algorithm and rotated_at in place,
	// keeping the single-active-record-per-user invariant.
	Replace(ctx context.Context, rec *models.EncryptionKeyRecord) error
}
