package fwtype

import (
	"errors"
	"fmt"
)

// Sentinel errors for container operations.
var (
	// ErrInvalidFormat is returned when the container does not follow the UBNT layout.
	ErrInvalidFormat = errors.New("ubnt: invalid format")

	// ErrTruncatedInput is returned when a fixed-size read or a declared skip
	// runs past the end of the stream.
	ErrTruncatedInput = errors.New("ubnt: truncated input")

	// ErrIOFailure is returned when the underlying read, seek or write fails.
	ErrIOFailure = errors.New("ubnt: i/o failure")

	// ErrUnknownTag is returned in strict mode for an unrecognized record tag.
	ErrUnknownTag = errors.New("ubnt: unknown tag")

	// ErrDuplicateEntry is returned in strict mode when two entries share a name.
	ErrDuplicateEntry = errors.New("ubnt: duplicate entry")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("ubnt: size overflow")

	// ErrDecompression is returned when a compressed image cannot be decoded.
	ErrDecompression = errors.New("ubnt: decompression failed")
)

// MagicError reports a header whose magic is not "UBNT".
type MagicError struct {
	// Got holds the bytes read where the magic was expected.
	Got []byte
}

func (e *MagicError) Error() string {
	return fmt.Sprintf("ubnt: invalid header magic %q", e.Got)
}

// Is makes MagicError match ErrInvalidFormat.
func (e *MagicError) Is(target error) bool {
	return target == ErrInvalidFormat
}
