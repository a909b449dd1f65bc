// Package vault implements the encrypted file storage engine: one-time
// encryption setup, the compress-then-encrypt upload and
// decrypt-then-decompress download pipeline, delete, key rotation and
// usage statistics. The caller (the host backend's route layer) supplies
// the user's password per call; the engine never persists passwords or
// derived keys.
package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taxpilot/docvault/internal/blob"
	"github.com/taxpilot/docvault/internal/common"
	"github.com/taxpilot/docvault/internal/compressx"
	"github.com/taxpilot/docvault/internal/cryptox"
	"github.com/taxpilot/docvault/internal/logging"
	"github.com/taxpilot/docvault/internal/models"
	"github.com/taxpilot/docvault/internal/notify"
	"github.com/taxpilot/docvault/internal/repositories/repomanager"
)

// Service is the engine's external surface. Safe for concurrent use.
type Service struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	blobs    blob.Store
	notifier notify.Notifier
	logger   logging.Logger
	locks    *userLocks
}

// NewService wires the engine together. The notifier may be notify.Noop.
func NewService(db *sql.DB, rm repomanager.RepositoryManager, blobs blob.Store, notifier notify.Notifier, logger logging.Logger) *Service {
	return &Service{
		db:       db,
		rm:       rm,
		blobs:    blobs,
		notifier: notifier,
		logger:   logger,
		locks:    newUserLocks(),
	}
}

// SetupResult reports the outcome of SetupEncryption.
type SetupResult struct {
	EncryptionEnabled bool
	KeyCreatedAt      time.Time
}

// UploadResult describes a freshly stored file.
type UploadResult struct {
	ID                  string
	OriginalFilename    string
	FileType            string
	FileSize            int64
	IsEncrypted         bool
	CompressionRatio    float64
	EncryptionAlgorithm string
	CreatedAt           time.Time
}

// DownloadResult carries decrypted plaintext plus the content-type
// metadata recorded at upload time.
type DownloadResult struct {
	Data             []byte
	MimeType         string
	OriginalFilename string
}

// newStoragePath allocates an opaque blob key. Uniqueness comes from the
// trailing UUID; the date segments only keep object listings browsable.
func newStoragePath(userID string) string {
	d := time.Now()
	return fmt.Sprintf("vault/%s/%d/%d/%d/%v", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

// SetupEncryption initializes encryption for a user: generates a fresh
// salt, derives the key and stores a verifier (never the key itself).
// One-time: a second call fails with ErrorAlreadyInitialized; rotation is
// the only supported key change path.
func (s *Service) SetupEncryption(ctx context.Context, userID, password string) (*SetupResult, error) {
	if userID == "" || password == "" {
		return nil, common.ErrorInvalidInput
	}

	keyRepo := s.rm.Keys(s.db)

	if _, err := keyRepo.Get(ctx, userID); err == nil {
		return nil, common.ErrorAlreadyInitialized
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error checking key record: %w", err)
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveKey(pw, salt)
	defer common.WipeByteArray(key)

	rec := &models.EncryptionKeyRecord{
		UserID:    userID,
		Salt:      salt,
		Verifier:  cryptox.MakeVerifier(key),
		Algorithm: cryptox.AlgorithmAES256GCM,
	}
	if err := keyRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("error creating key record: %w", err)
	}

	s.logger.Info(ctx, "encryption configured", "user_id", userID)
	return &SetupResult{EncryptionEnabled: true, KeyCreatedAt: rec.CreatedAt}, nil
}

// verifiedKey loads the user's key record and derives the key from the
// supplied password, checking it against the stored verifier.
func (s *Service) verifiedKey(ctx context.Context, userID string, password []byte) (*models.EncryptionKeyRecord, []byte, error) {
	keyRec, err := s.rm.Keys(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorEncryptionNotConfigured
		}
		return nil, nil, fmt.Errorf("error loading key record: %w", err)
	}

	key := cryptox.DeriveKey(password, keyRec.Salt)
	if !cryptox.CheckVerifier(keyRec.Verifier, key) {
		common.WipeByteArray(key)
		return nil, nil, common.ErrorInvalidCredentials
	}
	return keyRec, key, nil
}

// UploadFile compresses, encrypts and stores a document. The record is
// created pending and transitions to stored on a successful blob write or
// failed otherwise. The password is verified before anything is encrypted
// so that a typo cannot produce an unreadable file.
func (s *Service) UploadFile(ctx context.Context, userID, filename, mimeType string, data []byte, password string) (*UploadResult, error) {
	if userID == "" || password == "" {
		return nil, common.ErrorInvalidInput
	}

	if !s.locks.tryShared(userID) {
		return nil, common.ErrorRotationInProgress
	}
	defer s.locks.releaseShared(userID)

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	_, key, err := s.verifiedKey(ctx, userID, pw)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	compressed, err := compressx.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("compression error: %w", err)
	}

	ciphertext, tag, nonce, err := cryptox.Encrypt(compressed, key)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	fileRepo := s.rm.Files(s.db)
	rec := &models.EncryptedFileRecord{
		ID:               uuid.New().String(),
		UserID:           userID,
		OriginalFilename: filename,
		MimeType:         mimeType,
		OriginalSize:     int64(len(data)),
		StoragePath:      newStoragePath(userID),
		Nonce:            nonce,
		AuthTag:          tag,
		Algorithm:        cryptox.AlgorithmAES256GCM,
		Status:           models.FileStatusPending,
	}
	if err := fileRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("error creating file record: %w", err)
	}

	if err := s.blobs.Put(ctx, rec.StoragePath, ciphertext); err != nil {
		s.logger.Error(ctx, "blob write failed", "user_id", userID, "file_id", rec.ID, "error", err)
		if mfErr := fileRepo.MarkFailed(ctx, rec.ID); mfErr != nil {
			s.logger.Error(ctx, "failed to mark record failed", "file_id", rec.ID, "error", mfErr)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageWrite, err)
	}

	rec.StoredSize = int64(len(ciphertext))
	rec.Status = models.FileStatusStored
	if err := fileRepo.MarkStored(ctx, rec.ID, rec.StoredSize); err != nil {
		return nil, fmt.Errorf("error marking file stored: %w", err)
	}

	if err := s.notifier.FileStored(ctx, notify.StoredFile{
		FileID:   rec.ID,
		UserID:   userID,
		Filename: filename,
		MimeType: mimeType,
	}); err != nil {
		s.logger.Warn(ctx, "stored-file notification failed", "file_id", rec.ID, "error", err)
	}

	s.logger.Info(ctx, "file stored", "user_id", userID, "file_id", rec.ID,
		"original_size", rec.OriginalSize, "stored_size", rec.StoredSize)

	return &UploadResult{
		ID:                  rec.ID,
		OriginalFilename:    rec.OriginalFilename,
		FileType:            rec.MimeType,
		FileSize:            rec.OriginalSize,
		IsEncrypted:         true,
		CompressionRatio:    rec.CompressionRatio(),
		EncryptionAlgorithm: rec.Algorithm,
		CreatedAt:           rec.CreatedAt,
	}, nil
}

// DownloadFile fetches, decrypts and decompresses a stored document.
// The password is deliberately not pre-verified here: a wrong password and
// tampered ciphertext both surface as ErrorDecryptionFailed, so the error
// cannot be used as a password oracle.
func (s *Service) DownloadFile(ctx context.Context, userID, fileID, password string) (*DownloadResult, error) {
	if userID == "" || password == "" {
		return nil, common.ErrorInvalidInput
	}

	if !s.locks.tryShared(userID) {
		return nil, common.ErrorRotationInProgress
	}
	defer s.locks.releaseShared(userID)

	rec, err := s.rm.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading file record: %w", err)
	}
	// Ownership mismatch is indistinguishable from a missing file.
	if rec.UserID != userID || rec.Status != models.FileStatusStored {
		return nil, common.ErrorNotFound
	}

	keyRec, err := s.rm.Keys(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorEncryptionNotConfigured
		}
		return nil, fmt.Errorf("error loading key record: %w", err)
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)
	key := cryptox.DeriveKey(pw, keyRec.Salt)
	defer common.WipeByteArray(key)

	ciphertext, err := s.blobs.Get(ctx, rec.StoragePath)
	if err != nil {
		// A stored record without a readable blob is a data-loss
		// condition. Logged, never swallowed.
		s.logger.Error(ctx, "blob read failed", "user_id", userID, "file_id", fileID,
			"storage_path", rec.StoragePath, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageRead, err)
	}

	compressed, err := cryptox.Decrypt(ciphertext, rec.AuthTag, rec.Nonce, key)
	if err != nil {
		return nil, common.ErrorDecryptionFailed
	}

	plaintext, err := compressx.Decompress(compressed)
	if err != nil {
		// The tag verified, so the corruption predates encryption. Fatal.
		s.logger.Error(ctx, "decompression failed after authenticated decrypt",
			"user_id", userID, "file_id", fileID, "error", err)
		return nil, common.ErrorIntegrity
	}

	return &DownloadResult{
		Data:             plaintext,
		MimeType:         rec.MimeType,
		OriginalFilename: rec.OriginalFilename,
	}, nil
}

// DeleteFile removes the blob and the record together. The blob goes
// first: a record pointing at a missing blob is a visible data-loss
// signal, while an orphaned blob is merely garbage.
func (s *Service) DeleteFile(ctx context.Context, userID, fileID string) error {
	if userID == "" {
		return common.ErrorInvalidInput
	}

	if !s.locks.tryShared(userID) {
		return common.ErrorRotationInProgress
	}
	defer s.locks.releaseShared(userID)

	fileRepo := s.rm.Files(s.db)

	rec, err := fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading file record: %w", err)
	}
	if rec.UserID != userID {
		return common.ErrorNotFound
	}

	if rec.Status == models.FileStatusStored {
		if err := s.blobs.Delete(ctx, rec.StoragePath); err != nil {
			s.logger.Error(ctx, "blob delete failed", "user_id", userID, "file_id", fileID, "error", err)
			return fmt.Errorf("%w: %v", common.ErrorStorageWrite, err)
		}
	}

	if err := fileRepo.Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("error deleting file record: %w", err)
	}

	s.logger.Info(ctx, "file deleted", "user_id", userID, "file_id", fileID)
	return nil
}

// ListFiles returns the user's file records, oldest first.
func (s *Service) ListFiles(ctx context.Context, userID string) ([]*models.EncryptedFileRecord, error) {
	if userID == "" {
		return nil, common.ErrorInvalidInput
	}
	return s.rm.Files(s.db).ListByUser(ctx, userID)
}
