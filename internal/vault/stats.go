package vault

import (
	"context"
	"fmt"

	"github.com/taxpilot/docvault/internal/common"
)

// StatsResult aggregates a user's stored documents. CompressionRatio is
// sum(original)/sum(stored) over stored files; EncryptionCoverage is
// stored files over all files. Both are guarded against division by zero.
type StatsResult struct {
	TotalFiles          int64
	EncryptedFiles      int64
	TotalOriginalSize   int64
	TotalCompressedSize int64
	CompressionRatio    float64
	EncryptionCoverage  float64
}

// GetStats is a pure read-only aggregation; calling it twice with no
// intervening writes yields identical results.
func (s *Service) GetStats(ctx context.Context, userID string) (*StatsResult, error) {
	if userID == "" {
		return nil, common.ErrorInvalidInput
	}

	stats, err := s.rm.Files(s.db).StatsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error aggregating stats: %w", err)
	}

	result := &StatsResult{
		TotalFiles:          stats.TotalFiles,
		EncryptedFiles:      stats.EncryptedFiles,
		TotalOriginalSize:   stats.TotalOriginalSize,
		TotalCompressedSize: stats.TotalStoredSize,
		CompressionRatio:    1.0,
	}
	if stats.TotalStoredSize > 0 {
		result.CompressionRatio = float64(stats.TotalOriginalSize) / float64(stats.TotalStoredSize)
	}
	if stats.TotalFiles > 0 {
		result.EncryptionCoverage = float64(stats.EncryptedFiles) / float64(stats.TotalFiles)
	}
	return result, nil
}
