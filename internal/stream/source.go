package stream

import (
	"fmt"
	"io"
	"sync"

	"github.com/meigma/ubnt/internal/fwtype"
)

// DefaultChunkSize is the copy buffer size used for extraction.
const DefaultChunkSize = 64 << 10

// Source provides length-bounded reads of regions of a container stream.
//
// If the underlying stream implements io.ReaderAt, each copy reads through
// its own io.SectionReader and copies may run concurrently. Otherwise copies
// share the stream's cursor and are serialized so a seek and the reads that
// follow it are never interleaved with another copy.
type Source struct {
	mu   sync.Mutex
	rs   io.ReadSeeker
	ra   io.ReaderAt
	size int64
	bufs sync.Pool
}

// NewSource wraps rs. chunkSize bounds the memory used per copy;
// values < 1 select DefaultChunkSize.
func NewSource(rs io.ReadSeeker, size int64, chunkSize int) *Source {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	s := &Source{rs: rs, size: size}
	if ra, ok := rs.(io.ReaderAt); ok {
		s.ra = ra
	}
	s.bufs.New = func() any {
		buf := make([]byte, chunkSize)
		return &buf
	}
	return s
}

// Concurrent reports whether copies may run in parallel.
func (s *Source) Concurrent() bool {
	return s.ra != nil
}

// Size returns the stream size.
func (s *Source) Size() int64 {
	return s.size
}

// CopyRange writes exactly length bytes starting at off to w and stops.
// It returns fwtype.ErrTruncatedInput if the stream ends first.
func (s *Source) CopyRange(w io.Writer, off, length int64) (int64, error) {
	bufp := s.bufs.Get().(*[]byte) //nolint:errcheck // pool only holds *[]byte
	defer s.bufs.Put(bufp)

	if s.ra != nil {
		return copyExact(w, io.NewSectionReader(s.ra, off, length), length, *bufp)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return 0, fmt.Errorf("%w: seek to %d: %w", fwtype.ErrIOFailure, off, err)
	}
	return copyExact(w, io.LimitReader(s.rs, length), length, *bufp)
}

// copyExact copies through buf without letting w bypass it via io.ReaderFrom,
// so memory use per copy stays at len(buf).
func copyExact(w io.Writer, r io.Reader, length int64, buf []byte) (int64, error) {
	n, err := io.CopyBuffer(writerOnly{w}, readerOnly{r}, buf)
	if err != nil {
		return n, fmt.Errorf("%w: copied %d of %d bytes: %w", fwtype.ErrIOFailure, n, length, err)
	}
	if n < length {
		return n, fmt.Errorf("%w: copied %d of %d bytes", fwtype.ErrTruncatedInput, n, length)
	}
	return n, nil
}

type writerOnly struct{ io.Writer }

type readerOnly struct{ io.Reader }
