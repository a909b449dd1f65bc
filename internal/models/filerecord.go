package models

import "time"

// File status values. A record starts pending, moves to stored once the
// ciphertext blob is written, or to failed otherwise. A failed record has
// no live blob.
const (
	FileStatusPending = "pending"
	FileStatusStored  = "stored"
	FileStatusFailed  = "failed"
)

// EncryptedFileRecord describes one stored document. The ciphertext lives
// in the blob store under StoragePath; the record carries everything else
// needed to decrypt it (given the owner's password).
type EncryptedFileRecord struct {
	ID     string
	UserID string

	OriginalFilename string
	MimeType         string

	// OriginalSize is the plaintext length; StoredSize is the ciphertext
	// length. StoredSize > 0 only when Status is stored.
	OriginalSize int64
	StoredSize   int64

	// StoragePath is an opaque key into the blob store.
	StoragePath string

	// Nonce and AuthTag are the cipher outputs required for decryption.
	// The nonce is unique per file and never reused under the same key.
	Nonce   []byte
	AuthTag []byte

	// Algorithm matches the key record's algorithm at encryption time;
	// rotation updates it.
	Algorithm string

	Status    string
	CreatedAt time.Time
}

// CompressionRatio reports original over stored size for this record.
// Defined as 1.0 when nothing has been stored, to avoid division by zero.
func (f *EncryptedFileRecord) CompressionRatio() float64 {
	if f.StoredSize == 0 {
		return 1.0
	}
	return float64(f.OriginalSize) / float64(f.StoredSize)
}

// UsageStats aggregates a user's stored documents.
type UsageStats struct {
	TotalFiles        int64
	EncryptedFiles    int64
	TotalOriginalSize int64
	TotalStoredSize   int64
}
