package quote

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the normalized shape returned by all sources.
// A Quote is a value: callers never mutate one in place, a refresh
// produces a new Quote.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	IsSynthetic   bool      `json:"isSynthetic"`
}

// Source fetches the current quote for a single symbol from one upstream.
// Implementations are stateless and safe for concurrent use; they apply
// their own per-call timeout and report failures through the Err* sentinels
// below, never through partial Quotes.
type Source interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (Quote, error)
}

// Caller errors.
var (
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrEmptyBatch    = errors.New("empty batch")
	ErrBatchTooLarge = errors.New("batch too large")
)

// Source errors. Each failed fetch wraps exactly one of these so the
// resolver can advance the fallback chain without inspecting messages.
var (
	ErrSourceTimeout     = errors.New("source timeout")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSourceData        = errors.New("source data invalid")
)

// NormalizeSymbol trims and uppercases a raw ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidSymbol reports whether a normalized ticker can be resolved at all.
func ValidSymbol(s string) bool {
	return len(s) >= 2
}

// Round2 rounds a monetary value to 2 decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// ChangeFromPrevious derives change and changePercent from a current price
// and a previous reference price. A zero previous price yields 0 percent.
func ChangeFromPrevious(current, previous float64) (change, changePercent float64) {
	change = current - previous
	if previous != 0 {
		changePercent = change / previous * 100
	}
	return Round2(change), Round2(changePercent)
}
