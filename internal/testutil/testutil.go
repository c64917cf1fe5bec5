// Package testutil builds synthetic UBNT containers for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Field widths of the container layout.
const (
	headerNameSize = 256
	entryNameSize  = 44
	signatureSize  = 256
)

// Builder assembles a container image record by record.
type Builder struct {
	order binary.ByteOrder
	buf   bytes.Buffer
	spans map[string]Span
}

// Span locates an entry's content within the built image.
type Span struct {
	Start  int64
	Length int
}

// NewBuilder starts an image with a UBNT header carrying name.
// Integer fields outside entry headers are written big-endian.
func NewBuilder(name string) *Builder {
	return NewBuilderWithOrder(name, binary.BigEndian, 0, nil)
}

// NewBuilderWithOrder starts an image using order for header, footer and
// signature integers, followed by skip reserved bytes.
func NewBuilderWithOrder(name string, order binary.ByteOrder, checksum uint32, reserved []byte) *Builder {
	b := &Builder{order: order, spans: make(map[string]Span)}
	b.buf.WriteString("UBNT")
	b.buf.Write(pad([]byte(name), headerNameSize))
	b.putUint32(order, checksum)
	b.putUint32(order, uint32(len(reserved)))
	b.buf.Write(reserved)
	return b
}

// File appends a FILE record with a zero checksum and no trailing skip.
func (b *Builder) File(name string, content []byte, flags uint32) *Builder {
	return b.FileWithFooter(name, content, flags, 0, nil)
}

// FileWithFooter appends a FILE record with an explicit footer.
func (b *Builder) FileWithFooter(name string, content []byte, flags, checksum uint32, trailer []byte) *Builder {
	b.buf.WriteString("FILE")
	b.buf.Write(pad([]byte(name), entryNameSize))
	b.putUint32(binary.BigEndian, uint32(len(content)))
	b.putUint32(binary.BigEndian, flags)
	b.spans[string(bytes.TrimRight([]byte(name), "\x00"))] = Span{
		Start:  int64(b.buf.Len()),
		Length: len(content),
	}
	b.buf.Write(content)
	b.putUint32(b.order, checksum)
	b.putUint32(b.order, uint32(len(trailer)))
	b.buf.Write(trailer)
	return b
}

// Signature appends an ENDS record.
func (b *Builder) Signature(sig []byte, key uint32) *Builder {
	b.buf.WriteString("ENDS")
	b.buf.Write(pad(sig, signatureSize))
	b.putUint32(b.order, key)
	return b
}

// Raw appends bytes verbatim.
func (b *Builder) Raw(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

// Len returns the current image size.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Span returns where the most recent entry with the given name stores its content.
func (b *Builder) Span(name string) (Span, bool) {
	s, ok := b.spans[name]
	return s, ok
}

// Bytes returns a copy of the image built so far.
func (b *Builder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

func (b *Builder) putUint32(order binary.ByteOrder, v uint32) {
	var tmp [4]byte
	order.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
}

func pad(p []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, p)
	return out
}

// SeekOnly hides io.ReaderAt so tests exercise the shared-cursor path.
type SeekOnly struct {
	R io.ReadSeeker
}

// Read implements io.Reader.
func (s *SeekOnly) Read(p []byte) (int, error) {
	return s.R.Read(p)
}

// Seek implements io.Seeker.
func (s *SeekOnly) Seek(offset int64, whence int) (int64, error) {
	return s.R.Seek(offset, whence)
}

// ErrInjected is returned by FailingWriter and FailingReadSeeker.
var ErrInjected = errors.New("testutil: injected failure")

// FailingWriter rejects every write.
type FailingWriter struct{}

// Write implements io.Writer.
func (FailingWriter) Write([]byte) (int, error) {
	return 0, ErrInjected
}

// FailingReadSeeker fails reads once the cursor reaches FailAt.
type FailingReadSeeker struct {
	R      io.ReadSeeker
	FailAt int64
	pos    int64
}

// Read implements io.Reader.
func (f *FailingReadSeeker) Read(p []byte) (int, error) {
	if f.pos >= f.FailAt {
		return 0, ErrInjected
	}
	if remaining := f.FailAt - f.pos; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := f.R.Read(p)
	f.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker.
func (f *FailingReadSeeker) Seek(offset int64, whence int) (int64, error) {
	pos, err := f.R.Seek(offset, whence)
	if err == nil {
		f.pos = pos
	}
	return pos, err
}
