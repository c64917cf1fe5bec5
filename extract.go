package ubnt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/meigma/ubnt/internal/batch"
)

// ExtractStats reports the outcome of ExtractAll.
type ExtractStats = batch.Stats

// ExtractOption configures ExtractAll.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	overwrite    bool
	directWrites bool
	workers      int
}

// ExtractWithOverwrite controls whether existing files are replaced.
// By default they are; when false, existing files are skipped and counted
// in ExtractStats.Skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = overwrite
	}
}

// ExtractWithDirectWrites writes straight to each destination file instead
// of writing a temp file and renaming it into place.
func ExtractWithDirectWrites(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.directWrites = enabled
	}
}

// ExtractWithWorkers sets how many entries are extracted at once (default: 1).
// Values > 1 only take effect when the container's stream implements
// io.ReaderAt; otherwise entries are extracted one at a time.
//
// With more than one worker, a failure stops new entries from starting,
// but entries already in progress run to completion and are committed.
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractAll writes every entry to a file named after it under destDir,
// creating destDir if needed.
//
// Extraction is fail-fast: after the first entry fails no further entries
// are started, and its error is returned. Serially, nothing after the
// failing entry is written; with workers, entries already in progress still
// finish (see ExtractWithWorkers). Files already written are left in place,
// and the returned stats describe them. Entries are started in Entries order.
func (c *Container) ExtractAll(ctx context.Context, destDir string, opts ...ExtractOption) (ExtractStats, error) {
	cfg := extractConfig{overwrite: true, workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return ExtractStats{}, fmt.Errorf("%w: create %s: %w", ErrIOFailure, destDir, err)
	}

	workers := cfg.workers
	if workers > 1 && !c.src.Concurrent() {
		c.logger.Debug("stream does not support concurrent reads; extracting serially", "workers", workers)
		workers = 1
	}

	items := make([]batch.Item, 0, len(c.order))
	for name, e := range c.Entries() {
		items = append(items, batch.Item{Path: name, WriteTo: e.Extract})
	}

	proc := batch.NewProcessor(
		batch.WithWorkers(workers),
		batch.WithProcessorLogger(c.logger),
	)
	sink := batch.NewFileSink(destDir,
		batch.WithOverwrite(cfg.overwrite),
		batch.WithDirectWrites(cfg.directWrites),
	)
	stats, err := proc.Process(ctx, items, sink)
	if err != nil {
		return stats, classify(err)
	}
	return stats, nil
}

// classify marks destination failures as ErrIOFailure, leaving errors that
// already carry a kind, and context errors, untouched.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrIOFailure),
		errors.Is(err, ErrTruncatedInput),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
}
