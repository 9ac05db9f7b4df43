package aggregate

import (
	"context"
	"fmt"
	"sort"

	"quoteprovider/internal/quote"
)

// DefaultMaxSymbols bounds one batch in this deployment.
const DefaultMaxSymbols = 20

// Resolver is the per-symbol dependency of the aggregator.
type Resolver interface {
	Resolve(ctx context.Context, symbol string) (quote.Quote, error)
}

// Result maps every symbol that resolved to its quote, plus an error
// entry per symbol that failed end-to-end. The counts are a derived
// view for observability, not separate state.
type Result struct {
	Results         map[string]quote.Quote `json:"results"`
	TotalRequested  int                    `json:"total_requested"`
	TotalSuccessful int                    `json:"total_successful"`
	Errors          []string               `json:"errors"`
}

// Aggregator resolves a bounded set of symbols concurrently with
// all-settled semantics: one symbol's failure never blocks or fails
// the others.
type Aggregator struct {
	resolver   Resolver
	maxSymbols int
}

func New(resolver Resolver, maxSymbols int) *Aggregator {
	if maxSymbols <= 0 {
		maxSymbols = DefaultMaxSymbols
	}
	return &Aggregator{resolver: resolver, maxSymbols: maxSymbols}
}

// ResolveBatch resolves symbols, assumed unique and uppercased by the
// caller. Batch-shape errors are rejected before any source is touched.
func (a *Aggregator) ResolveBatch(ctx context.Context, symbols []string) (Result, error) {
	if len(symbols) == 0 {
		return Result{}, quote.ErrEmptyBatch
	}
	if len(symbols) > a.maxSymbols {
		return Result{}, fmt.Errorf("%w: %d symbols (max %d)", quote.ErrBatchTooLarge, len(symbols), a.maxSymbols)
	}

	type settled struct {
		idx    int
		symbol string
		q      quote.Quote
		err    error
	}
	ch := make(chan settled, len(symbols))
	for i, s := range symbols {
		go func(idx int, sym string) {
			q, err := a.resolver.Resolve(ctx, sym)
			ch <- settled{idx: idx, symbol: sym, q: q, err: err}
		}(i, s)
	}

	res := Result{
		Results:        make(map[string]quote.Quote, len(symbols)),
		TotalRequested: len(symbols),
	}
	failures := make([]settled, 0)
	for range symbols {
		s := <-ch
		if s.err != nil {
			failures = append(failures, s)
			continue
		}
		res.Results[s.q.Symbol] = s.q
	}
	res.TotalSuccessful = len(res.Results)

	// error manifest keeps the request order
	sort.Slice(failures, func(i, j int) bool { return failures[i].idx < failures[j].idx })
	for _, f := range failures {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", f.symbol, f.err))
	}
	return res, nil
}
