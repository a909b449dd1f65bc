package compressx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxpilot/docvault/internal/common"
)

func TestCompressDecompress_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"short text", []byte("hello vault")},
		{"repetitive", []byte(strings.Repeat("tax form 1040 ", 500))},
		{"random", common.GenerateRandByteArray(4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := Compress(tt.data)
			require.NoError(t, err)

			out, err := Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, tt.data, out)
		})
	}
}

func TestCompress_ShrinksRepetitiveInput(t *testing.T) {
	data := []byte(strings.Repeat("taxpayer ", 1000))
	compressed, err := Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))
}

func TestDecompress_Garbage(t *testing.T) {
	_, err := Decompress([]byte("definitely not a zstd frame"))
	assert.Error(t, err)
}
