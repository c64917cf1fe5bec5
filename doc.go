// Package ubnt reads UBNT firmware containers and extracts the files
// embedded in them.
//
// A container is a header carrying the product name, a sequence of named
// file records and an optional trailing signature block. [Parse] decodes
// the whole container in a single pass over a seekable stream; file content
// is not read until an entry is extracted.
//
// # Quick Start
//
// Open an image and extract every entry into a directory:
//
//	c, err := ubnt.Open("firmware.bin")
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	fmt.Println(c.Name()) // e.g. UDM.alpinev2.v1.10.0.a2edd0c.210709.0332
//	stats, err := c.ExtractAll(ctx, "./out")
//
// Stream a single entry:
//
//	if e, ok := c.Entry("rootfs"); ok {
//	    _, err = e.Extract(w)
//	}
//
// Images wrapped in gzip or zstd are unpacked to a temporary file by [Open].
//
// # Entries
//
// Entries are keyed by name. When two records share a name, the later one
// replaces the earlier one unless [WithStrictNames] is set. Unrecognized
// record tags are skipped four bytes at a time unless [WithStrictTags] is
// set; skipping does not resynchronize, so a corrupt record can hide the
// records after it.
//
// An entry refers back to the container's stream by offset and length, so
// the stream must stay open until extraction is finished. Extraction always
// copies exactly the entry's declared length.
//
// # Byte Order
//
// Entry lengths and flags are big-endian. The remaining integer fields
// (header checksum and skip, entry checksum and skip, signature key) are
// read big-endian by default; use [WithByteOrder] for images written in
// little-endian order.
//
// # Checksums and Signatures
//
// Header and entry checksums and the signature block are recorded but never
// verified.
//
// # Concurrency
//
// Parsing is sequential. When the stream implements [io.ReaderAt] (as
// [*os.File] does), entries can be extracted concurrently; otherwise
// extractions from one container are serialized internally.
package ubnt
