package dataset

import (
	"context"
	"path/filepath"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/models"
)

// File names used when samples are split by tag
const (
	PositiveFile = "positive_samples.jsonl"
	NegativeFile = "negative_samples.jsonl"
)

// SplitWriter routes each pair to a per-tag JSON Lines file in one directory
type SplitWriter struct {
	positive *JSONLWriter
	negative *JSONLWriter
}

// OpenSplit opens both per-tag files under dir
func OpenSplit(dir string) (*SplitWriter, error) {
	pos, err := OpenJSONL(filepath.Join(dir, PositiveFile))
	if err != nil {
		return nil, err
	}
	neg, err := OpenJSONL(filepath.Join(dir, NegativeFile))
	if err != nil {
		pos.Close()
		return nil, err
	}
	return &SplitWriter{positive: pos, negative: neg}, nil
}

// Write appends pair to the file for its tag
func (w *SplitWriter) Write(ctx context.Context, pair models.CandidatePair) error {
	switch pair.Tag {
	case models.TagPositive:
		return w.positive.Write(ctx, pair)
	case models.TagNegative:
		return w.negative.Write(ctx, pair)
	default:
		return errors.ValidationErrorf("unknown tag %q", pair.Tag)
	}
}

// Close closes both files, returning the first error
func (w *SplitWriter) Close() error {
	perr := w.positive.Close()
	nerr := w.negative.Close()
	if perr != nil {
		return perr
	}
	return nerr
}
