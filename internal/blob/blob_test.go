package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxpilot/docvault/internal/common"
)

// runStoreContract exercises the Store contract shared by all backends.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "absent")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, store.Put(ctx, "a/b/c", []byte("ciphertext")))

	data, err := store.Get(ctx, "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), data)

	// overwrite
	require.NoError(t, store.Put(ctx, "a/b/c", []byte("v2")))
	data, err = store.Get(ctx, "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	require.NoError(t, store.Delete(ctx, "a/b/c"))
	_, err = store.Get(ctx, "a/b/c")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// deleting a missing path is a no-op
	assert.NoError(t, store.Delete(ctx, "a/b/c"))
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestBadgerStore_Contract(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	runStoreContract(t, store)
}

func TestMemoryStore_CopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("original")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}
