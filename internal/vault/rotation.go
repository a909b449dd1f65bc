package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/taxpilot/docvault/internal/common"
	"github.com/taxpilot/docvault/internal/cryptox"
	"github.com/taxpilot/docvault/internal/dbx"
	"github.com/taxpilot/docvault/internal/models"
)

// RotateResult reports a rotation outcome structurally: how many files
// now live under the new key and which ones do not. Partial failure is a
// valid outcome, not an error — each file's transition is its own atomic
// unit and already-rotated files stay valid under the new key.
type RotateResult struct {
	RotatedCount  int
	FailedFileIDs []string
}

// RotateKey re-encrypts every stored file of the user from the old
// password-derived key to a new one. The old password is verified before
// any file is touched. Files are processed sequentially so that a crash
// mid-rotation leaves a deterministic boundary between rotated and
// not-yet-rotated files. Holds the user's exclusive lock for the whole
// call; concurrent uploads and downloads are rejected with
// ErrorRotationInProgress.
//
// The key record (new salt, new verifier, rotated_at) is committed only
// after all files have been attempted. A fully failed rotation leaves the
// old record intact and decryptable.
func (s *Service) RotateKey(ctx context.Context, userID, oldPassword, newPassword string) (*RotateResult, error) {
	if userID == "" || oldPassword == "" || newPassword == "" {
		return nil, common.ErrorInvalidInput
	}

	if !s.locks.tryExclusive(userID) {
		return nil, common.ErrorRotationInProgress
	}
	defer s.locks.releaseExclusive(userID)

	oldPw := []byte(oldPassword)
	defer common.WipeByteArray(oldPw)

	keyRec, oldKey, err := s.verifiedKey(ctx, userID, oldPw)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(oldKey)

	newPw := []byte(newPassword)
	defer common.WipeByteArray(newPw)

	newSalt := common.GenerateRandByteArray(cryptox.SaltSize)
	newKey := cryptox.DeriveKey(newPw, newSalt)
	defer common.WipeByteArray(newKey)

	records, err := s.rm.Files(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}

	result := &RotateResult{}
	for i, rec := range records {
		if rec.Status != models.FileStatusStored {
			continue
		}

		// Cancellation is honored between files only, never mid-file.
		if ctx.Err() != nil {
			s.logger.Warn(ctx, "rotation cancelled", "user_id", userID,
				"rotated", result.RotatedCount, "remaining", len(records)-i)
			for _, rest := range records[i:] {
				if rest.Status == models.FileStatusStored {
					result.FailedFileIDs = append(result.FailedFileIDs, rest.ID)
				}
			}
			break
		}

		if err := s.rotateFile(ctx, rec, oldKey, newKey); err != nil {
			s.logger.Error(ctx, "file rotation failed", "user_id", userID,
				"file_id", rec.ID, "error", err)
			result.FailedFileIDs = append(result.FailedFileIDs, rec.ID)
			continue
		}
		result.RotatedCount++
	}

	// Commit the new key record when anything rotated (those files are
	// only readable under the new key) or when nothing failed (covers a
	// zero-file password change). Only a fully failed rotation keeps the
	// old record.
	if result.RotatedCount > 0 || len(result.FailedFileIDs) == 0 {
		now := time.Now()
		keyRec.Salt = newSalt
		keyRec.Verifier = cryptox.MakeVerifier(newKey)
		keyRec.Algorithm = cryptox.AlgorithmAES256GCM
		keyRec.RotatedAt = &now

		if err := s.rm.Keys(s.db).Replace(ctx, keyRec); err != nil {
			s.logger.Error(ctx, "key record commit failed after rotation",
				"user_id", userID, "rotated", result.RotatedCount, "error", err)
			return result, fmt.Errorf("error committing key record: %w", err)
		}
	}

	s.logger.Info(ctx, "key rotation finished", "user_id", userID,
		"rotated", result.RotatedCount, "failed", len(result.FailedFileIDs))
	return result, nil
}

// rotateFile moves one file from oldKey to newKey atomically: the record
// is updated only after the new blob write succeeds, and the old blob is
// deleted only after the record update commits. Any failure leaves the
// file fully on the old key.
func (s *Service) rotateFile(ctx context.Context, rec *models.EncryptedFileRecord, oldKey, newKey []byte) error {
	ciphertext, err := s.blobs.Get(ctx, rec.StoragePath)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageRead, err)
	}

	compressed, err := cryptox.Decrypt(ciphertext, rec.AuthTag, rec.Nonce, oldKey)
	if err != nil {
		return common.ErrorDecryptionFailed
	}

	newCiphertext, newTag, newNonce, err := cryptox.Encrypt(compressed, newKey)
	if err != nil {
		return fmt.Errorf("encryption error: %w", err)
	}

	newPath := newStoragePath(rec.UserID)
	if err := s.blobs.Put(ctx, newPath, newCiphertext); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageWrite, err)
	}

	oldPath := rec.StoragePath
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.rm.Files(tx).UpdateCiphertext(ctx, rec.ID, newPath,
			newNonce, newTag, cryptox.AlgorithmAES256GCM, int64(len(newCiphertext)))
	})
	if err != nil {
		// The record still points at the old blob; drop the new one.
		if delErr := s.blobs.Delete(ctx, newPath); delErr != nil {
			s.logger.Warn(ctx, "orphaned blob after failed rotation update",
				"file_id", rec.ID, "storage_path", newPath, "error", delErr)
		}
		return fmt.Errorf("error updating file record: %w", err)
	}

	rec.StoragePath = newPath
	rec.Nonce = newNonce
	rec.AuthTag = newTag
	rec.StoredSize = int64(len(newCiphertext))

	// The file is already valid under the new key; a failed delete only
	// leaves a stale blob behind.
	if err := s.blobs.Delete(ctx, oldPath); err != nil {
		s.logger.Warn(ctx, "old blob delete failed after rotation",
			"file_id", rec.ID, "storage_path", oldPath, "error", err)
	}

	return nil
}
