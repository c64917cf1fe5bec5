package ubnt

import (
	"fmt"
	"io"
	"os"

	"github.com/meigma/ubnt/internal/stream"
)

// FileEntry is one named file embedded in a container.
//
// A FileEntry does not hold its content. It records where the content lies
// in the container's stream and reads it from there on extraction.
type FileEntry struct {
	name     string
	offset   int64
	start    int64
	length   uint32
	flags    uint32
	checksum uint32
	src      *stream.Source
}

// Name returns the entry name with its NUL padding removed.
// Names are raw bytes and need not be valid UTF-8.
func (e *FileEntry) Name() string {
	return e.name
}

// Offset returns the stream offset of the entry's FILE tag.
func (e *FileEntry) Offset() int64 {
	return e.offset
}

// Start returns the stream offset of the first content byte.
func (e *FileEntry) Start() int64 {
	return e.start
}

// Length returns the declared content size in bytes.
func (e *FileEntry) Length() uint32 {
	return e.length
}

// Flags returns the entry flags. They are not interpreted.
func (e *FileEntry) Flags() uint32 {
	return e.flags
}

// Checksum returns the checksum recorded after the content. It is not verified.
func (e *FileEntry) Checksum() uint32 {
	return e.checksum
}

// Extract writes exactly Length() bytes of content to w.
//
// It returns ErrTruncatedInput if the stream ends before the content does,
// and ErrIOFailure if reading or writing fails.
func (e *FileEntry) Extract(w io.Writer) (int64, error) {
	n, err := e.src.CopyRange(w, e.start, int64(e.length))
	if err != nil {
		return n, fmt.Errorf("extract %q: %w", e.name, err)
	}
	return n, nil
}

// ExtractFile writes the entry's content to path, creating or truncating it.
// A failed extraction leaves the partial file in place.
func (e *FileEntry) ExtractFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrIOFailure, cerr)
		}
	}()

	_, err = e.Extract(f)
	return err
}
