package ubnt

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/meigma/ubnt/internal/spool"
)

// Open opens and parses the image at path.
//
// Images compressed with gzip or zstd are decompressed into a temporary
// file first (see WithMaxDecompressedSize and WithTempDir). The returned
// Container owns the file; call Close when extraction is finished.
func Open(path string, opts ...Option) (*Container, error) {
	cfg := newConfig(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	rs, compression, closeFn, err := unwrap(f, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	c, err := parse(rs, cfg)
	if err != nil {
		_ = closeFn() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	c.compression = compression
	c.closeFn = closeFn
	return c, nil
}

// unwrap returns a seekable stream of the raw image in f and a function
// that releases it. f is closed if the image had to be decompressed.
func unwrap(f *os.File, cfg *config) (io.ReadSeeker, Compression, func() error, error) {
	var prefix [spool.PrefixSize]byte
	n, err := f.ReadAt(prefix[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return nil, CompressionNone, nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	compression := spool.Detect(prefix[:n])
	if compression == CompressionNone {
		return f, CompressionNone, f.Close, nil
	}

	cfg.logger.Debug("decompressing image", "path", f.Name(), "compression", compression.String())
	spooler := spool.New(
		spool.WithTempDir(cfg.tempDir),
		spool.WithMaxSize(cfg.maxDecompressedSize),
	)
	tmp, err := spooler.Spool(f, compression)
	closeErr := f.Close()
	if err != nil {
		return nil, compression, nil, err
	}
	release := func() error {
		return errors.Join(tmp.Close(), os.Remove(tmp.Name()))
	}
	if closeErr != nil {
		_ = release() //nolint:errcheck // best-effort cleanup
		return nil, compression, nil, fmt.Errorf("%w: %w", ErrIOFailure, closeErr)
	}
	return tmp, compression, release, nil
}
