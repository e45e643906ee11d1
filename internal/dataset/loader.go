// Package dataset loads the compressed per-dataset metadata block published
// for every BILD ID.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Source returns the raw compressed blob of one dataset.
type Source interface {
	Dataset(ctx context.Context, bildID string) ([]byte, error)
}

// Loader fetches, decompresses and parses dataset blobs.
type Loader struct {
	Source   Source
	MaxBytes int64
}

// Load fetches one dataset block. Every failure is reported as a single error
// naming the identifier.
func (l *Loader) Load(ctx context.Context, bildID string) (Detail, error) {
	d, err := l.load(ctx, strings.TrimSpace(bildID))
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset for BILD ID %q: %w", bildID, err)
	}
	return d, nil
}

func (l *Loader) load(ctx context.Context, bildID string) (Detail, error) {
	if bildID == "" {
		return nil, errors.New("BILD ID is required")
	}
	if l == nil || l.Source == nil {
		return nil, errors.New("no dataset source configured")
	}
	blob, err := l.Source.Dataset(ctx, bildID)
	if err != nil {
		return nil, err
	}
	data, err := Decompress(blob, l.MaxBytes)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
