package ubnt

import (
	"errors"
	"fmt"
	"io"

	"github.com/meigma/ubnt/internal/format"
	"github.com/meigma/ubnt/internal/stream"
)

// Parse decodes the container that starts at r's current position.
//
// Parse reads the header, then scans records until the end of the stream.
// It returns a fully populated Container or an error, never both. Entry
// content is skipped, not read; the returned entries read it from r on
// extraction, so r must stay open until they are done.
func Parse(r io.ReadSeeker, opts ...Option) (*Container, error) {
	return parse(r, newConfig(opts))
}

func parse(r io.ReadSeeker, cfg *config) (*Container, error) {
	cur, err := stream.NewCursor(r)
	if err != nil {
		return nil, err
	}

	h, err := format.ReadHeader(cur, cfg.order)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := cur.Skip(uint64(h.Skip)); err != nil {
		return nil, fmt.Errorf("skip header reserved bytes: %w", err)
	}

	c := &Container{
		name:     h.Name,
		checksum: h.Checksum,
		entries:  make(map[string]*FileEntry),
		src:      stream.NewSource(r, cur.Size(), cfg.chunkSize),
		logger:   cfg.logger,
	}
	s := &scanner{cur: cur, cfg: cfg, c: c}
	if err := s.run(); err != nil {
		return nil, err
	}
	cfg.logger.Debug("parsed container", "name", c.name, "entries", len(c.entries), "signed", c.signature != nil)
	return c, nil
}

// scanner dispatches records by tag until the stream ends.
type scanner struct {
	cur *stream.Cursor
	cfg *config
	c   *Container
}

func (s *scanner) run() error {
	for {
		off := s.cur.Pos()
		tag, n, err := format.ReadTag(s.cur)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			if s.cfg.strictTags {
				return fmt.Errorf("%w: partial tag %q at offset %d", ErrTruncatedInput, tag[:n], off)
			}
			s.cfg.logger.Debug("ignoring partial tag at end of stream", "offset", off, "bytes", n)
			return nil
		case err != nil:
			return err
		}

		switch tag {
		case format.FileTag:
			if err := s.file(off); err != nil {
				return err
			}
		case format.SignatureTag:
			if err := s.signature(off); err != nil {
				return err
			}
		default:
			if s.cfg.strictTags {
				return fmt.Errorf("%w: %w: %q at offset %d", ErrInvalidFormat, ErrUnknownTag, tag[:], off)
			}
			s.cfg.logger.Debug("skipping unknown tag", "offset", off, "tag", fmt.Sprintf("%q", tag[:]))
		}
	}
}

// file decodes the FILE record whose tag starts at off.
func (s *scanner) file(off int64) error {
	h, err := format.ReadEntryHeader(s.cur)
	if err != nil {
		return fmt.Errorf("entry at offset %d: %w", off, err)
	}
	start := s.cur.Pos()
	if err := s.cur.Skip(uint64(h.Length)); err != nil {
		return fmt.Errorf("entry %q content: %w", h.Name, err)
	}
	footer, err := format.ReadEntryFooter(s.cur, s.cfg.order)
	if err != nil {
		return fmt.Errorf("entry %q: %w", h.Name, err)
	}
	if err := s.cur.Skip(uint64(footer.Skip)); err != nil {
		return fmt.Errorf("entry %q trailer: %w", h.Name, err)
	}

	return s.c.put(&FileEntry{
		name:     string(h.Name),
		offset:   off,
		start:    start,
		length:   h.Length,
		flags:    h.Flags,
		checksum: footer.Checksum,
		src:      s.c.src,
	}, s.cfg.strictNames)
}

// signature decodes the ENDS record whose tag starts at off.
func (s *scanner) signature(off int64) error {
	sig, err := format.ReadSignature(s.cur, s.cfg.order)
	if err != nil {
		return fmt.Errorf("signature at offset %d: %w", off, err)
	}
	sig.Position = off
	s.c.setSignature(sig)
	return nil
}
