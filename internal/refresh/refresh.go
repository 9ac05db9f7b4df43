package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quoteprovider/internal/aggregate"
	"quoteprovider/internal/cache"
)

// Batcher is the batch-resolution dependency of the refresher.
type Batcher interface {
	ResolveBatch(ctx context.Context, symbols []string) (aggregate.Result, error)
}

// Refresher keeps the cache warm for a fixed symbol set by re-resolving
// it on a ticker. It replaces an always-on timer with an explicit
// start/stop lifecycle: Stop cancels the loop and waits for it to exit.
type Refresher struct {
	batcher  Batcher
	symbols  []string
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(batcher Batcher, symbols []string, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = cache.DefaultTTL
	}
	return &Refresher{batcher: batcher, symbols: symbols, interval: interval, logger: logger}
}

// Start launches the refresh loop. Calling Start on a running refresher
// is a no-op.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil || len(r.symbols) == 0 {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		r.run(ctx)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.run(ctx)
			}
		}
	}()
}

// Stop cancels the loop and blocks until it has exited. Safe to call on
// a never-started or already-stopped refresher.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Refresher) run(ctx context.Context) {
	res, err := r.batcher.ResolveBatch(ctx, r.symbols)
	if err != nil {
		r.logger.Warn("refresh failed", "error", err)
		return
	}
	r.logger.Info("refreshed symbols", "requested", res.TotalRequested, "successful", res.TotalSuccessful)
}
