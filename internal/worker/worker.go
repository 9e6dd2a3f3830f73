// Package worker runs the occurrence materialiser on a ticker, the
// background counterpart to the on-demand calls made from the HTTP surface.
//
// OccMaterialiser (internal/materialize) is naturally idempotent and
// transactional per call, so unlike a generic job queue this worker needs no
// claiming, leasing, or dead-letter handling: every tick is safe to retry,
// and two instances ticking concurrently against the same store just do
// redundant, harmless work.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rezkam/keepup/internal/materialize"
	"github.com/rezkam/keepup/internal/store"
)

// Worker periodically materialises current occurrences for every active item.
type Worker struct {
	facade   store.Facade
	interval time.Duration
	now      func() time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Worker.
type Option func(*Worker)

// WithInterval overrides the default materialisation interval.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) { w.interval = d }
}

// WithClock overrides the reference-time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// New builds a Worker against facade.
func New(facade store.Facade, opts ...Option) *Worker {
	w := &Worker{
		facade:   facade,
		interval: 5 * time.Minute,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start runs the ticker loop until ctx is cancelled or Stop is called. It
// materialises once immediately before entering the loop.
func (w *Worker) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "materialiser worker started", "interval", w.interval)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.runOnce(ctx)
			}()
		case <-ctx.Done():
			slog.InfoContext(ctx, "materialiser worker shutting down", "cause", ctx.Err())
			w.wg.Wait()
			return ctx.Err()
		case <-w.done:
			slog.InfoContext(ctx, "materialiser worker stopped")
			w.wg.Wait()
			return nil
		}
	}
}

// Stop requests a graceful shutdown and returns at once; Start waits for any
// in-flight run before it returns.
func (w *Worker) Stop() {
	close(w.done)
}

func (w *Worker) runOnce(ctx context.Context) {
	now := w.now().UTC()
	pairs, err := materialize.CurrentItemsAndOccurrences(ctx, w.facade, now)
	if err != nil {
		slog.ErrorContext(ctx, "materialisation run failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "materialisation run complete", "reference_now", now, "current_occurrences", len(pairs))
}
