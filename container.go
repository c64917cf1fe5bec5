package ubnt

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/meigma/ubnt/internal/fwtype"
	"github.com/meigma/ubnt/internal/stream"
)

// Signature is the trailing authentication block of a container.
type Signature = fwtype.Signature

// Compression identifies the compression wrapped around an image.
type Compression = fwtype.Compression

// Re-export compression constants.
const (
	CompressionNone = fwtype.CompressionNone
	CompressionGzip = fwtype.CompressionGzip
	CompressionZstd = fwtype.CompressionZstd
)

// Container is a decoded firmware image.
//
// A Container's entries read from the stream it was parsed from. The stream
// must remain open, and must not be repositioned by other code, while
// entries are being extracted.
type Container struct {
	name        string
	checksum    uint32
	entries     map[string]*FileEntry
	order       []string
	signature   *Signature
	compression Compression
	src         *stream.Source
	logger      *slog.Logger
	closeFn     func() error
	didClose    bool
}

// Name returns the product name from the header.
func (c *Container) Name() string {
	return c.name
}

// Checksum returns the header checksum. It is not validated.
func (c *Container) Checksum() uint32 {
	return c.checksum
}

// Compression reports how the image was wrapped when read by Open.
func (c *Container) Compression() Compression {
	return c.compression
}

// Len returns the number of distinct entry names.
func (c *Container) Len() int {
	return len(c.entries)
}

// Entry returns the entry with the given name.
func (c *Container) Entry(name string) (*FileEntry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// Names returns entry names in the order they were first seen.
func (c *Container) Names() []string {
	return slices.Clone(c.order)
}

// Entries iterates over entries in the order their names were first seen.
// A name that appeared more than once yields its last entry.
func (c *Container) Entries() iter.Seq2[string, *FileEntry] {
	return func(yield func(string, *FileEntry) bool) {
		for _, name := range c.order {
			if !yield(name, c.entries[name]) {
				return
			}
		}
	}
}

// Signature returns the last signature block in the image, if any.
func (c *Container) Signature() (Signature, bool) {
	if c.signature == nil {
		return Signature{}, false
	}
	return *c.signature, true
}

// Close releases the file opened by Open. For containers returned by Parse
// it does nothing; the caller still owns the stream.
func (c *Container) Close() error {
	if c.didClose {
		return nil
	}
	c.didClose = true
	if c.closeFn == nil {
		return nil
	}
	if err := c.closeFn(); err != nil {
		return fmt.Errorf("%w: close: %w", ErrIOFailure, err)
	}
	return nil
}

// put records e, replacing any entry with the same name unless strict.
func (c *Container) put(e *FileEntry, strict bool) error {
	prev, ok := c.entries[e.name]
	if ok {
		if strict {
			return fmt.Errorf("%w: %w: %q at offsets %d and %d",
				ErrInvalidFormat, ErrDuplicateEntry, e.name, prev.offset, e.offset)
		}
		c.logger.Debug("replacing duplicate entry", "name", e.name, "previous_offset", prev.offset, "offset", e.offset)
	} else {
		c.order = append(c.order, e.name)
	}
	c.entries[e.name] = e
	return nil
}

// setSignature records sig, replacing any earlier one.
func (c *Container) setSignature(sig Signature) {
	if c.signature != nil {
		c.logger.Debug("replacing signature", "previous_position", c.signature.Position, "position", sig.Position)
	}
	c.signature = &sig
}
