// Package inventory loads the BIL daily inventory report and derives the
// per-dataset collection code and human readable size.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Source returns the raw daily report body.
type Source interface {
	Inventory(ctx context.Context) ([]byte, error)
}

// Load performs one fetch from src and builds the table. Any fetch or parse
// failure fails the whole load.
func Load(ctx context.Context, src Source) (*Table, error) {
	if src == nil {
		return nil, errors.New("failed to load inventory: no source configured")
	}
	body, err := src.Inventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	rows, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return NewTable(rows, time.Now().UTC()), nil
}

// Parse decodes a report body: a JSON array of dataset objects.
func Parse(body []byte) ([]Row, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode report: unexpected data after JSON array")
	}
	if records == nil {
		return nil, errors.New("decode report: expected a JSON array, got null")
	}

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("decode report: record %d is null", i)
		}
		rows = append(rows, rowFromRecord(rec))
	}
	return rows, nil
}
