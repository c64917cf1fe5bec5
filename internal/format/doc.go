// Package format decodes the fixed-size records of a UBNT firmware container.
//
// Stream layout:
//
//	"UBNT" | name[256] | checksum u32 | skip u32 | skip bytes
//	repeated:
//	  "FILE" | name[44] | length u32 (BE) | flags u32 (BE) | content[length] | checksum u32 | skip u32 | skip bytes
//	  "ENDS" | signature[256] | key u32
//
// Integer fields outside the entry header are decoded in a caller-chosen byte order.
// Entry header fields are always big-endian.
package format
