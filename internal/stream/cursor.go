// Package stream tracks positions in a seekable container stream and
// provides length-bounded access to regions of it.
package stream

import (
	"fmt"
	"io"

	"github.com/meigma/ubnt/internal/fwtype"
	"github.com/meigma/ubnt/internal/sizing"
)

// Cursor tracks the read position of a seekable stream during a single
// decode pass. Skips are checked against the stream size before seeking.
type Cursor struct {
	r    io.ReadSeeker
	pos  int64
	size int64
}

// NewCursor measures r and returns a cursor at r's current position.
func NewCursor(r io.ReadSeeker) (*Cursor, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: locate stream position: %w", fwtype.ErrIOFailure, err)
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: measure stream: %w", fwtype.ErrIOFailure, err)
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: rewind stream: %w", fwtype.ErrIOFailure, err)
	}
	return &Cursor{r: r, pos: pos, size: size}, nil
}

// Read implements io.Reader.
func (c *Cursor) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.pos += int64(n)
	return n, err
}

// Pos returns the absolute stream offset of the next byte to be read.
func (c *Cursor) Pos() int64 {
	return c.pos
}

// Size returns the stream size measured when the cursor was created.
func (c *Cursor) Size() int64 {
	return c.size
}

// Skip advances past n bytes without reading them.
func (c *Cursor) Skip(n uint64) error {
	if !sizing.Within(c.pos, n, c.size) {
		return fmt.Errorf("%w: skipping %d bytes at offset %d overruns stream of %d bytes",
			fwtype.ErrTruncatedInput, n, c.pos, c.size)
	}
	if n == 0 {
		return nil
	}
	end := c.pos + int64(n) //nolint:gosec // bounded by Within
	if _, err := c.r.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to %d: %w", fwtype.ErrIOFailure, end, err)
	}
	c.pos = end
	return nil
}
