// Package files implements persistence for encrypted file records.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taxpilot/docvault/internal/common"
	"github.com/taxpilot/docvault/internal/dbx"
	"github.com/taxpilot/docvault/internal/models"
)

// PostgresRepository implements file record storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.EncryptedFileRecord) error {
	query := `
		INSERT INTO encrypted_files
			(id, user_id, original_filename, mime_type, original_size, stored_size,
			 storage_path, nonce, auth_tag, algorithm, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.ID, file.UserID, file.OriginalFilename, file.MimeType,
		file.OriginalSize, file.StoredSize, file.StoragePath,
		file.Nonce, file.AuthTag, file.Algorithm, file.Status).Scan(&file.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.EncryptedFileRecord, error) {
	query := `
		SELECT id, user_id, original_filename, mime_type, original_size, stored_size,
			storage_path, nonce, auth_tag, algorithm, status, created_at
		FROM encrypted_files
		WHERE id = $1
	`
	file := &models.EncryptedFileRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&file.ID, &file.UserID, &file.OriginalFilename, &file.MimeType,
		&file.OriginalSize, &file.StoredSize, &file.StoragePath,
		&file.Nonce, &file.AuthTag, &file.Algorithm, &file.Status, &file.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.EncryptedFileRecord, error) {
	query := `
		SELECT id, user_id, original_filename, mime_type, original_size, stored_size,
			storage_path, nonce, auth_tag, algorithm, status, created_at
		FROM encrypted_files
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.EncryptedFileRecord
	for rows.Next() {
		var item models.EncryptedFileRecord
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.OriginalFilename, &item.MimeType,
			&item.OriginalSize, &item.StoredSize, &item.StoragePath,
			&item.Nonce, &item.AuthTag, &item.Algorithm, &item.Status, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkStored(ctx context.Context, id string, storedSize int64) error {
	query := `UPDATE encrypted_files SET status = 'stored', stored_size = $2 WHERE id = $1`
	return r.execOne(ctx, query, id, storedSize)
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, id string) error {
	query := `UPDATE encrypted_files SET status = 'failed', stored_size = 0 WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) UpdateCiphertext(ctx context.Context, id, storagePath string, nonce, authTag []byte, algorithm string, storedSize int64) error {
	query := `
		UPDATE encrypted_files
		SET storage_path = $2, nonce = $3, auth_tag = $4, algorithm = $5, stored_size = $6
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, storagePath, nonce, authTag, algorithm, storedSize)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM encrypted_files WHERE id = $1`
	return r.execOne(ctx, query, id)
}

// StatsByUser aggregates in SQL; only stored files contribute sizes.
func (r *PostgresRepository) StatsByUser(ctx context.Context, userID string) (*models.UsageStats, error) {
	query := `
		SELECT count(*),
			count(*) FILTER (WHERE status = 'stored'),
			COALESCE(sum(original_size) FILTER (WHERE status = 'stored'), 0),
			COALESCE(sum(stored_size) FILTER (WHERE status = 'stored'), 0)
		FROM encrypted_files
		WHERE user_id = $1
	`
	stats := &models.UsageStats{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalFiles, &stats.EncryptedFiles, &stats.TotalOriginalSize, &stats.TotalStoredSize)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return stats, nil
}

// execOne runs a statement that must affect exactly one row. Zero rows is
// reported as ErrorNotFound.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
