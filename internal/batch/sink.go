package batch

import "io"

// Item is one entry scheduled for extraction.
type Item struct {
	// Path is the slash-separated destination path relative to the sink root.
	Path string

	// WriteTo streams the entry's content to w.
	WriteTo func(w io.Writer) (int64, error)
}

// Sink receives extracted content.
//
// Implementations determine where content is written and can filter which
// items to process.
type Sink interface {
	// ShouldProcess returns false if this item should be skipped.
	ShouldProcess(item *Item) bool

	// Writer returns a writer for the item's content.
	// The returned Committer must have Commit() called after a successful
	// write, or Discard() called on any error.
	Writer(item *Item) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
//
// A file-based implementation might write to a temp file and rename it on
// Commit, or delete it on Discard.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}
