// Package keys implements persistence for per-user encryption key records.
package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taxpilot/docvault/internal/common"
	"github.com/taxpilot/docvault/internal/dbx"
	"github.com/taxpilot/docvault/internal/models"
)

// PostgresRepository implements key record storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.EncryptionKeyRecord) error {
	query := `
		INSERT INTO encryption_keys (user_id, salt, verifier, algorithm)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.UserID, rec.Salt, rec.Verifier, rec.Algorithm).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.EncryptionKeyRecord, error) {
	query := `
		SELECT user_id, salt, verifier, algorithm, created_at, rotated_at
		FROM encryption_keys
		WHERE user_id = $1
	`
	rec := &models.EncryptionKeyRecord{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&rec.UserID, &rec.Salt, &rec.Verifier, &rec.Algorithm, &rec.CreatedAt, &rec.RotatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Replace updates the user's key record in place. Exactly one row must be
// affected; zero rows means the record disappeared and is reported as
// ErrorNotFound.
func (r *PostgresRepository) Replace(ctx context.Context, rec *models.EncryptionKeyRecord) error {
	query := `
		UPDATE encryption_keys
		SET salt = $2, verifier = $3, algorithm = $4, rotated_at = $5
		WHERE user_id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.UserID, rec.Salt, rec.Verifier, rec.Algorithm, rec.RotatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
