package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"quoteprovider/internal/cache"
	"quoteprovider/internal/quote"
)

// defaultKeyPrefix matches the cache key scheme of the serverless
// deployment this service replaces.
const defaultKeyPrefix = "stock_"

// Resolver produces exactly one Quote per valid symbol: cache first, then
// each source in priority order, then a synthetic estimate. Source
// failures are logged and absorbed; only a malformed symbol surfaces an
// error to the caller.
type Resolver struct {
	store     cache.Store
	sources   []quote.Source
	est       *Estimator
	logger    *slog.Logger
	keyPrefix string

	// coalesce concurrent cache misses per symbol
	sf singleflight.Group
}

func New(store cache.Store, sources []quote.Source, est *Estimator, logger *slog.Logger) *Resolver {
	if est == nil {
		est = NewEstimator(nil, "")
	}
	return &Resolver{
		store:     store,
		sources:   sources,
		est:       est,
		logger:    logger,
		keyPrefix: defaultKeyPrefix,
	}
}

// Resolve returns the quote for symbol. Synthetic quotes are cached like
// live ones, so a sustained outage does not retry every source on every
// call within the TTL window.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (quote.Quote, error) {
	sym := quote.NormalizeSymbol(symbol)
	if !quote.ValidSymbol(sym) {
		return quote.Quote{}, fmt.Errorf("%w: %q", quote.ErrInvalidSymbol, symbol)
	}

	key := r.keyPrefix + sym
	if q, ok := r.store.Get(ctx, key); ok {
		return q, nil
	}

	v, _, _ := r.sf.Do(sym, func() (any, error) {
		return r.resolveMiss(ctx, sym, key), nil
	})
	return v.(quote.Quote), nil
}

func (r *Resolver) resolveMiss(ctx context.Context, sym, key string) quote.Quote {
	// another flight may have filled the cache while we queued
	if q, ok := r.store.Get(ctx, key); ok {
		return q
	}

	for _, s := range r.sources {
		q, err := s.FetchQuote(ctx, sym)
		if err != nil {
			r.logger.Warn("source failed", "symbol", sym, "source", s.Name(), "error", err)
			continue
		}
		r.store.Set(ctx, key, q)
		r.logger.Info("quote resolved", "symbol", sym, "source", s.Name(), "price", q.Price)
		return q
	}

	q := r.est.Estimate(sym)
	r.logger.Warn("all sources failed, synthesizing estimate", "symbol", sym, "price", q.Price)
	r.store.Set(ctx, key, q)
	return q
}
