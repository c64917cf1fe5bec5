package ubnt

import "github.com/meigma/ubnt/internal/fwtype"

// Sentinel errors re-exported from internal/fwtype.
var (
	// ErrInvalidFormat is returned when the header magic is wrong, the header
	// name is not UTF-8, or a strict-mode check fails.
	ErrInvalidFormat = fwtype.ErrInvalidFormat

	// ErrTruncatedInput is returned when a record or declared skip runs past
	// the end of the stream, or an entry's content is cut short.
	ErrTruncatedInput = fwtype.ErrTruncatedInput

	// ErrIOFailure is returned when an underlying read, seek or write fails.
	ErrIOFailure = fwtype.ErrIOFailure

	// ErrUnknownTag is returned with ErrInvalidFormat under WithStrictTags.
	ErrUnknownTag = fwtype.ErrUnknownTag

	// ErrDuplicateEntry is returned with ErrInvalidFormat under WithStrictNames.
	ErrDuplicateEntry = fwtype.ErrDuplicateEntry

	// ErrSizeOverflow is returned when a decompressed image exceeds its limit.
	ErrSizeOverflow = fwtype.ErrSizeOverflow

	// ErrDecompression is returned when a compressed image cannot be decoded.
	ErrDecompression = fwtype.ErrDecompression
)

// MagicError reports a header whose magic is not "UBNT".
// It matches ErrInvalidFormat with errors.Is.
type MagicError = fwtype.MagicError
