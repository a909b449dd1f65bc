// Package blob defines the opaque byte store the vault writes ciphertext
// to, keyed by storage path, with S3-compatible, embedded (badger) and
// in-memory implementations.
package blob

import "context"

// Store is an opaque put/get/delete of byte sequences by storage path.
// Paths have no semantics beyond uniqueness. Get returns
// common.ErrorNotFound for a missing path; Delete of a missing path is a
// no-op.
type Store interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}
