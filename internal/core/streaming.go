package core

import (
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// ErrFileTooLarge is returned by a countingReader once its limit is passed.
var ErrFileTooLarge = errors.New("file too large")

// countingReader tracks bytes read, fingerprints them, and fails once more
// than limit bytes have been read. A zero limit disables the check.
type countingReader struct {
	reader io.Reader
	digest *xxhash.Digest
	limit  int64

	BytesRead int64
}

func newCountingReader(r io.Reader, limit int64) *countingReader {
	return &countingReader{
		reader: r,
		digest: xxhash.New(),
		limit:  limit,
	}
}

// Read implements io.Reader.
func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	_, _ = r.digest.Write(p[:n])

	if r.limit > 0 && r.BytesRead > r.limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, r.limit)
	}
	return n, err
}

// Checksum returns the xxhash64 of everything read so far as 16 hex digits.
func (r *countingReader) Checksum() string {
	return fmt.Sprintf("%016x", r.digest.Sum64())
}
