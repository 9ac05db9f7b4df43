package ratelimit

import (
	"context"
	"sync"
	"time"

	"quoteprovider/internal/quote"
)

// MinInterval wraps a source and enforces a minimum time between calls.
// Callers wait until the interval has elapsed since the last call, or
// return early if the context is canceled.
type MinInterval struct {
	S        quote.Source
	Interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func (m *MinInterval) Name() string { return m.S.Name() }

func (m *MinInterval) FetchQuote(ctx context.Context, symbol string) (quote.Quote, error) {
	if m.Interval > 0 {
		m.mu.Lock()
		wait := time.Until(m.last.Add(m.Interval))
		m.mu.Unlock()
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return quote.Quote{}, ctx.Err()
			case <-t.C:
			}
		}
	}
	q, err := m.S.FetchQuote(ctx, symbol)
	if m.Interval > 0 {
		m.mu.Lock()
		m.last = time.Now()
		m.mu.Unlock()
	}
	return q, err
}
