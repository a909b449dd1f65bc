// Package notify publishes stored-file notifications for the admin side.
// The admin system consumes these through its own channel instead of
// sharing in-process state with the vault.
package notify

import "context"

// StoredFile is the payload emitted after a file record reaches the
// stored state. The consumer maps user_id to whatever contact data it
// owns; the vault does not manage accounts.
type StoredFile struct {
	FileID   string `json:"file_id"`
	UserID   string `json:"user_id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

// Notifier delivers stored-file notifications. Delivery is best-effort
// from the pipeline's point of view: a failed publish is logged by the
// caller, never fails the upload.
type Notifier interface {
	FileStored(ctx context.Context, n StoredFile) error
	Close() error
}

// Noop discards notifications. Used when no broker is configured.
type Noop struct{}

func (Noop) FileStored(ctx context.Context, n StoredFile) error { return nil }

func (Noop) Close() error { return nil }
