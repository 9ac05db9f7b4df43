package refresh

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quoteprovider/internal/aggregate"
)

type fakeBatcher struct {
	mu    sync.Mutex
	calls int
	ran   chan struct{}
}

func newFakeBatcher() *fakeBatcher {
	return &fakeBatcher{ran: make(chan struct{}, 64)}
}

func (f *fakeBatcher) ResolveBatch(_ context.Context, symbols []string) (aggregate.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	f.ran <- struct{}{}
	return aggregate.Result{TotalRequested: len(symbols), TotalSuccessful: len(symbols)}, nil
}

func (f *fakeBatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitRun(t *testing.T, b *fakeBatcher) {
	t.Helper()
	select {
	case <-b.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not run in time")
	}
}

func TestRefresher_RunsImmediatelyAndOnTicks(t *testing.T) {
	t.Parallel()

	b := newFakeBatcher()
	r := New(b, []string{"PETR4", "VALE3"}, 10*time.Millisecond, discard())

	r.Start(t.Context())
	defer r.Stop()

	waitRun(t, b) // first pass happens without waiting a full interval
	waitRun(t, b) // then the ticker takes over
}

func TestRefresher_StopTerminatesLoop(t *testing.T) {
	t.Parallel()

	b := newFakeBatcher()
	r := New(b, []string{"PETR4"}, 5*time.Millisecond, discard())

	r.Start(t.Context())
	waitRun(t, b)
	r.Stop()

	settled := b.callCount()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, settled, b.callCount(), "no runs may happen after Stop returns")
}

func TestRefresher_StartIsIdempotent(t *testing.T) {
	t.Parallel()

	b := newFakeBatcher()
	r := New(b, []string{"PETR4"}, time.Hour, discard())

	r.Start(t.Context())
	r.Start(t.Context())
	defer r.Stop()

	waitRun(t, b)
	select {
	case <-b.ran:
		t.Fatal("second Start must not spawn a second loop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRefresher_StopWithoutStart(t *testing.T) {
	t.Parallel()

	r := New(newFakeBatcher(), []string{"PETR4"}, time.Hour, discard())
	r.Stop() // must not panic or block
}

func TestRefresher_NoSymbolsNeverStarts(t *testing.T) {
	t.Parallel()

	b := newFakeBatcher()
	r := New(b, nil, time.Millisecond, discard())
	r.Start(t.Context())
	defer r.Stop()

	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 0, b.callCount())
}
