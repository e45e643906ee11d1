package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Decompress gunzips a dataset blob. maxBytes bounds the decompressed size;
// zero or less disables the bound.
func Decompress(blob []byte, maxBytes int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer zr.Close()

	var r io.Reader = zr
	if maxBytes > 0 {
		r = io.LimitReader(zr, maxBytes+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if maxBytes > 0 && int64(len(out)) > maxBytes {
		return nil, fmt.Errorf("decompress: blob exceeds %d bytes", maxBytes)
	}
	return out, nil
}

// Parse decodes a metadata block. Strict JSON is tried first; only when it
// fails is the block read as a literal mapping (single quoted strings,
// True/False/None). An error is returned only when both fail.
func Parse(data []byte) (Detail, error) {
	d, strictErr := parseStrict(data)
	if strictErr == nil {
		return d, nil
	}
	d, literalErr := parseLiteral(data)
	if literalErr == nil {
		return d, nil
	}
	return nil, fmt.Errorf("not valid JSON (%v) nor a literal mapping (%v)", strictErr, literalErr)
}

func parseStrict(data []byte) (Detail, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level value is %s, want object", kindOf(v))
	}
	return Detail(m), nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
