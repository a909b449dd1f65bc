package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompressionRatio(t *testing.T) {
	f := &EncryptedFileRecord{OriginalSize: 1000, StoredSize: 500}
	assert.InDelta(t, 2.0, f.CompressionRatio(), 1e-9)

	f = &EncryptedFileRecord{OriginalSize: 1000, StoredSize: 0}
	assert.Equal(t, 1.0, f.CompressionRatio())
}
