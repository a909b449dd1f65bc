// Package compressx provides the reversible byte-stream compression
// applied to plaintext before encryption. Encrypted output is
// incompressible, so the codec must always run first in the pipeline.
package compressx

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compress returns the zstd-compressed form of data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd write: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("zstd close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress. A failure here on data that passed
// authenticated decryption means the stored bytes were corrupted before
// encryption ever happened.
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}
