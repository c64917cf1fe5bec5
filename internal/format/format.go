package format

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/meigma/ubnt/internal/fwtype"
)

// Record tags and field widths.
const (
	TagSize = 4

	HeaderNameSize = 256
	EntryNameSize  = 44
)

// Record tags.
var (
	HeaderMagic  = [TagSize]byte{'U', 'B', 'N', 'T'}
	FileTag      = [TagSize]byte{'F', 'I', 'L', 'E'}
	SignatureTag = [TagSize]byte{'E', 'N', 'D', 'S'}
)

// Header is the decoded container header.
type Header struct {
	Name     string
	Checksum uint32
	Skip     uint32
}

// EntryHeader is the metadata preceding an entry's content.
type EntryHeader struct {
	Name   []byte
	Length uint32
	Flags  uint32
}

// EntryFooter follows an entry's content.
type EntryFooter struct {
	Checksum uint32
	Skip     uint32
}

type rawHeader struct {
	Name     [HeaderNameSize]byte
	Checksum uint32
	Skip     uint32
}

type rawEntryHeader struct {
	Name   [EntryNameSize]byte
	Length uint32
	Flags  uint32
}

type rawSignature struct {
	Signature [fwtype.SignatureSize]byte
	Key       uint32
}

// ReadHeader reads and validates the container header.
// The magic is checked before the rest of the header is read, so a wrong
// magic is reported even when the stream is shorter than a header.
// It does not consume the skip bytes that follow it.
func ReadHeader(r io.Reader, order binary.ByteOrder) (Header, error) {
	var magic [TagSize]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return Header{}, readError("header magic", err)
	}
	if magic != HeaderMagic {
		return Header{}, &fwtype.MagicError{Got: bytes.Clone(magic[:])}
	}

	var raw rawHeader
	if err := binary.Read(r, order, &raw); err != nil {
		return Header{}, readError("header", err)
	}
	name := TrimName(raw.Name[:])
	if !utf8.Valid(name) {
		return Header{}, fmt.Errorf("%w: header name %q is not valid UTF-8", fwtype.ErrInvalidFormat, name)
	}
	return Header{
		Name:     string(name),
		Checksum: raw.Checksum,
		Skip:     raw.Skip,
	}, nil
}

// ReadEntryHeader reads the metadata following a FILE tag.
func ReadEntryHeader(r io.Reader) (EntryHeader, error) {
	var raw rawEntryHeader
	if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
		return EntryHeader{}, readError("entry header", err)
	}
	return EntryHeader{
		Name:   bytes.Clone(TrimName(raw.Name[:])),
		Length: raw.Length,
		Flags:  raw.Flags,
	}, nil
}

// ReadEntryFooter reads the checksum and skip count following an entry's content.
func ReadEntryFooter(r io.Reader, order binary.ByteOrder) (EntryFooter, error) {
	var footer EntryFooter
	if err := binary.Read(r, order, &footer); err != nil {
		return EntryFooter{}, readError("entry footer", err)
	}
	return footer, nil
}

// ReadSignature reads the block following an ENDS tag.
// Position is left for the caller to fill in.
func ReadSignature(r io.Reader, order binary.ByteOrder) (fwtype.Signature, error) {
	var raw rawSignature
	if err := binary.Read(r, order, &raw); err != nil {
		return fwtype.Signature{}, readError("signature", err)
	}
	return fwtype.Signature{
		Signature: raw.Signature,
		Key:       raw.Key,
	}, nil
}

// ReadTag reads the next record tag.
// It returns io.EOF if the stream ends cleanly before the tag and
// io.ErrUnexpectedEOF with the partial bytes if it ends inside one.
func ReadTag(r io.Reader) ([TagSize]byte, int, error) {
	var tag [TagSize]byte
	n, err := io.ReadFull(r, tag[:])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return tag, n, fmt.Errorf("%w: reading tag: %w", fwtype.ErrIOFailure, err)
	}
	return tag, n, err
}

// TrimName strips trailing NUL padding from a name field.
func TrimName(b []byte) []byte {
	return bytes.TrimRight(b, "\x00")
}

func readError(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading %s", fwtype.ErrTruncatedInput, what)
	}
	return fmt.Errorf("%w: reading %s: %w", fwtype.ErrIOFailure, what, err)
}
