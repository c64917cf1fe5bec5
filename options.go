package ubnt

import (
	"encoding/binary"
	"log/slog"

	"github.com/meigma/ubnt/internal/spool"
	"github.com/meigma/ubnt/internal/stream"
)

// Option configures Parse and Open.
type Option func(*config)

type config struct {
	strictTags          bool
	strictNames         bool
	order               binary.ByteOrder
	chunkSize           int
	logger              *slog.Logger
	maxDecompressedSize uint64
	tempDir             string
}

func newConfig(opts []Option) *config {
	cfg := &config{
		order:               binary.BigEndian,
		chunkSize:           stream.DefaultChunkSize,
		maxDecompressedSize: spool.DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

// WithStrictTags makes an unrecognized record tag, or a partial tag at the
// end of the stream, fail parsing. By default such bytes are skipped.
func WithStrictTags(strict bool) Option {
	return func(c *config) {
		c.strictTags = strict
	}
}

// WithStrictNames makes a second entry with an existing name fail parsing.
// By default the later entry replaces the earlier one.
func WithStrictNames(strict bool) Option {
	return func(c *config) {
		c.strictNames = strict
	}
}

// WithByteOrder sets the byte order of the header checksum and skip, entry
// checksum and skip, and signature key. The default is big-endian.
// Entry lengths and flags are always big-endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(c *config) {
		if order != nil {
			c.order = order
		}
	}
}

// WithChunkSize sets the buffer size used when copying entry content
// (default: 64KB). Values < 1 select the default.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = stream.DefaultChunkSize
		}
		c.chunkSize = n
	}
}

// WithLogger sets the logger for parse and extract operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMaxDecompressedSize limits the size of a gzip- or zstd-wrapped image
// after decompression (default: 1GB). Set limit to 0 to disable the limit.
// Only Open decompresses images.
func WithMaxDecompressedSize(limit uint64) Option {
	return func(c *config) {
		c.maxDecompressedSize = limit
	}
}

// WithTempDir sets where Open unpacks compressed images.
// The default is os.TempDir.
func WithTempDir(dir string) Option {
	return func(c *config) {
		c.tempDir = dir
	}
}
