package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quoteprovider/internal/quote"
)

type countingSource struct{ calls int }

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) FetchQuote(_ context.Context, symbol string) (quote.Quote, error) {
	c.calls++
	return quote.Quote{Symbol: symbol, Price: 1}, nil
}

func TestTokenBucketSource_AllowsBurstThenBlocks(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	s := &TokenBucketSource{S: src, TB: NewTokenBucket(0.001, 2)}

	// the burst passes straight through
	_, err := s.FetchQuote(t.Context(), "PETR4")
	require.NoError(t, err)
	_, err = s.FetchQuote(t.Context(), "PETR4")
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)

	// an exhausted bucket waits, so a short deadline fails first
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err = s.FetchQuote(ctx, "PETR4")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 2, src.calls)
}

func TestMinInterval_GatesSecondCall(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	s := &MinInterval{S: src, Interval: 30 * time.Millisecond}

	start := time.Now()
	_, err := s.FetchQuote(t.Context(), "PETR4")
	require.NoError(t, err)
	_, err = s.FetchQuote(t.Context(), "PETR4")
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	require.Equal(t, 2, src.calls)
}

func TestMinInterval_ZeroIntervalPassesThrough(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	s := &MinInterval{S: src}
	_, err := s.FetchQuote(t.Context(), "PETR4")
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
}
