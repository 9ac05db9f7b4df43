package cache

import (
	"context"
	"sync"
	"time"

	"quoteprovider/internal/quote"
)

// DefaultTTL is the documented validity window for a cached quote.
const DefaultTTL = 10 * time.Minute

// Store is the process-wide quote cache consulted by every resolution.
// Implementations are safe for concurrent use; Set is last-writer-wins
// and Clear is atomic with respect to any single Get or Set.
type Store interface {
	Get(ctx context.Context, key string) (quote.Quote, bool)
	Set(ctx context.Context, key string, q quote.Quote)
	Clear(ctx context.Context)
}

// entry stores one cached quote with its capture instant.
type entry struct {
	storedAt time.Time
	q        quote.Quote
}

// Memory is an in-memory Store with lazy expiry: stale entries are
// treated as absent on Get rather than actively evicted.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]entry
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now, items: make(map[string]entry)}
}

// Get returns the cached quote for key, or false if the key is absent or
// its entry has aged past the TTL.
func (m *Memory) Get(_ context.Context, key string) (quote.Quote, bool) {
	now := m.now()
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || now.Sub(e.storedAt) >= m.ttl {
		return quote.Quote{}, false
	}
	return e.q, true
}

// Set unconditionally overwrites any existing entry for key.
func (m *Memory) Set(_ context.Context, key string, q quote.Quote) {
	m.mu.Lock()
	m.items[key] = entry{storedAt: m.now(), q: q}
	m.mu.Unlock()
}

// Clear drops all entries in a single swap of the backing map, so no
// concurrent Get or Set observes a torn state.
func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	m.items = make(map[string]entry)
	m.mu.Unlock()
}

// Len reports the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
