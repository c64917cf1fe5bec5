// Package spool unwraps compressed firmware images into seekable temp files.
package spool

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/meigma/ubnt/internal/fwtype"
)

const (
	// DefaultMaxSize is the default limit on decompressed image size (1GB).
	DefaultMaxSize = 1 << 30

	// DefaultMaxDecoderMemory is the default maximum zstd decoder memory (256MB).
	DefaultMaxDecoderMemory = 256 << 20

	// PrefixSize is the number of leading bytes Detect needs.
	PrefixSize = 4
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect identifies the compression wrapped around an image from its leading bytes.
func Detect(prefix []byte) fwtype.Compression {
	switch {
	case bytes.HasPrefix(prefix, zstdMagic):
		return fwtype.CompressionZstd
	case bytes.HasPrefix(prefix, gzipMagic):
		return fwtype.CompressionGzip
	default:
		return fwtype.CompressionNone
	}
}

// Spooler decompresses images into temp files.
type Spooler struct {
	dir              string
	maxSize          uint64
	maxDecoderMemory uint64
}

// Option configures a Spooler.
type Option func(*Spooler)

// WithTempDir sets the directory for temp files.
// The default is os.TempDir.
func WithTempDir(dir string) Option {
	return func(s *Spooler) {
		s.dir = dir
	}
}

// WithMaxSize limits the decompressed image size.
// Set limit to 0 to disable the limit.
func WithMaxSize(limit uint64) Option {
	return func(s *Spooler) {
		s.maxSize = limit
	}
}

// New creates a Spooler.
func New(opts ...Option) *Spooler {
	s := &Spooler{
		maxSize:          DefaultMaxSize,
		maxDecoderMemory: DefaultMaxDecoderMemory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spool decompresses r into a new temp file and rewinds it.
// The caller owns the file and must close and remove it.
func (s *Spooler) Spool(r io.Reader, c fwtype.Compression) (*os.File, error) {
	dec, release, err := s.decoder(r, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", fwtype.ErrDecompression, c, err)
	}
	defer release()

	f, err := os.CreateTemp(s.dir, "ubnt-*.bin")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %w", fwtype.ErrIOFailure, err)
	}
	if err := s.copyTo(f, dec, c); err != nil {
		_ = f.Close()           //nolint:errcheck // best-effort cleanup
		_ = os.Remove(f.Name()) //nolint:errcheck // best-effort cleanup
		return nil, err
	}
	return f, nil
}

func (s *Spooler) copyTo(f *os.File, dec io.Reader, c fwtype.Compression) error {
	src := dec
	if s.maxSize > 0 {
		src = io.LimitReader(dec, int64(min(s.maxSize, 1<<62))+1) //nolint:gosec // clamped
	}
	n, err := io.Copy(f, src)
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return fmt.Errorf("%w: write temp file: %w", fwtype.ErrIOFailure, err)
		}
		return fmt.Errorf("%w: %s: %w", fwtype.ErrDecompression, c, err)
	}
	if s.maxSize > 0 && uint64(n) > s.maxSize { //nolint:gosec // n is non-negative
		return fmt.Errorf("%w: decompressed image exceeds %d bytes", fwtype.ErrSizeOverflow, s.maxSize)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: rewind temp file: %w", fwtype.ErrIOFailure, err)
	}
	return nil
}

// decoder returns a reader producing the decompressed image.
// The caller must call the returned release function when done.
func (s *Spooler) decoder(r io.Reader, c fwtype.Compression) (io.Reader, func(), error) {
	switch c {
	case fwtype.CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil //nolint:errcheck // read-side close
	case fwtype.CompressionZstd:
		opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
		if s.maxDecoderMemory != 0 {
			opts = append(opts, zstd.WithDecoderMaxMemory(s.maxDecoderMemory))
		}
		dec, err := zstd.NewReader(r, opts...)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression %s", c)
	}
}
