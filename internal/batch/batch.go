// Package batch extracts container entries into a Sink.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
)

// Stats reports the outcome of a Process call.
type Stats struct {
	// FileCount is the number of items written and committed.
	FileCount int

	// TotalBytes is the number of content bytes written.
	TotalBytes uint64

	// Skipped is the number of items the sink declined.
	Skipped int

	// Digests maps each committed item's path to the digest of its content.
	Digests map[string]digest.Digest
}

// Processor writes items to a sink, stopping at the first failure.
//
// Items committed before the failure are left in place; there is no rollback.
type Processor struct {
	workers int // <= 1 = serial
	logger  *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of items processed concurrently.
// Values <= 1 process items serially in order. Callers must only request
// more than one worker when items can be read concurrently.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithProcessorLogger sets the logger for batch operations.
// If not set, or nil, logging is disabled.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProcessor creates a new batch processor.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process writes items to sink.
//
// The first failing item aborts the run: no further items are started and
// the error is returned along with the stats accumulated so far. With
// several workers, items already started when the failure occurs still
// finish and are counted.
func (p *Processor) Process(ctx context.Context, items []Item, sink Sink) (Stats, error) {
	acc := &accumulator{stats: Stats{Digests: make(map[string]digest.Digest, len(items))}}
	if p.workers <= 1 {
		for i := range items {
			if err := ctx.Err(); err != nil {
				return acc.stats, err
			}
			if err := p.processOne(&items[i], sink, acc); err != nil {
				return acc.stats, err
			}
		}
		return acc.stats, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return p.processOne(&items[i], sink, acc)
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.stats, err
}

func (p *Processor) processOne(item *Item, sink Sink, acc *accumulator) error {
	if !sink.ShouldProcess(item) {
		p.logger.Debug("skipping existing entry", "path", item.Path)
		acc.skip()
		return nil
	}

	w, err := sink.Writer(item)
	if err != nil {
		return fmt.Errorf("extract %s: %w", item.Path, err)
	}

	digester := digest.Canonical.Digester()
	n, err := item.WriteTo(io.MultiWriter(w, digester.Hash()))
	if err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("extract %s: %w", item.Path, err)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("extract %s: %w", item.Path, err)
	}

	dgst := digester.Digest()
	p.logger.Debug("extracted entry", "path", item.Path, "bytes", n, "digest", dgst)
	acc.add(item.Path, n, dgst)
	return nil
}

type accumulator struct {
	mu    sync.Mutex
	stats Stats
}

func (a *accumulator) skip() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.Skipped++
}

func (a *accumulator) add(path string, n int64, dgst digest.Digest) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.FileCount++
	a.stats.TotalBytes += uint64(n) //nolint:gosec // n is non-negative
	a.stats.Digests[path] = dgst
}
