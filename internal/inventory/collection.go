package inventory

import (
	"regexp"

	"github.com/dustin/go-humanize"
)

// collectionPattern captures the two hex digit collection directory under /bil/data.
var collectionPattern = regexp.MustCompile(`/bil/data/([a-f0-9]{2})/`)

// ExtractCollection returns the collection code embedded in a BIL directory
// path, or nil when the path does not match.
func ExtractCollection(path string) *string {
	m := collectionPattern.FindStringSubmatch(path)
	if m == nil {
		return nil
	}
	code := m[1]
	return &code
}

// PrettySize renders a byte count with binary units (KiB, MiB, ...).
// A nil size yields nil.
func PrettySize(size *int64) *string {
	if size == nil {
		return nil
	}
	var s string
	if *size < 0 {
		s = "-" + humanize.IBytes(uint64(-*size))
	} else {
		s = humanize.IBytes(uint64(*size))
	}
	return &s
}
