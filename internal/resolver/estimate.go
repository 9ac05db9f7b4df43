package resolver

import (
	"hash/fnv"
	"math/rand/v2"
	"time"

	"quoteprovider/internal/quote"
)

// SyntheticSource tags quotes produced when every live source failed.
// Callers distinguish real data by this tag or the IsSynthetic flag.
const SyntheticSource = "Emergency Fallback"

// DefaultReferencePrices is v1 of the reference table for synthetic
// estimates, keyed by B3 ticker. Update the table, not the estimator.
var DefaultReferencePrices = map[string]float64{
	"PETR4": 38.45, "VALE3": 58.82, "ITUB4": 32.25, "BBDC4": 13.12,
	"ABEV3": 11.94, "B3SA3": 12.52, "WEGE3": 51.95, "MGLU3": 4.72,
	"RENT3": 59.48, "LREN3": 15.18, "VIVT3": 41.95, "JBSS3": 28.64,
}

// Estimator synthesizes a last-resort quote from the reference table.
// Unknown symbols hash deterministically into [bandMin, bandMax] so that
// repeated cold calls for the same symbol agree on the base price; a
// bounded jitter on top simulates intraday movement.
type Estimator struct {
	prices    map[string]float64
	currency  string
	bandMin   float64
	bandMax   float64
	jitterPct float64

	randFloat func() float64 // [0,1)
}

func NewEstimator(prices map[string]float64, currency string) *Estimator {
	if prices == nil {
		prices = DefaultReferencePrices
	}
	if currency == "" {
		currency = "BRL"
	}
	return &Estimator{
		prices:    prices,
		currency:  currency,
		bandMin:   5.00,
		bandMax:   80.00,
		jitterPct: 0.02,
		randFloat: rand.Float64,
	}
}

// BasePrice returns the stable pre-jitter price for a normalized symbol.
func (e *Estimator) BasePrice(symbol string) float64 {
	if p, ok := e.prices[symbol]; ok {
		return p
	}
	h := fnv.New32a()
	h.Write([]byte(symbol))
	cents := int64(e.bandMin * 100)
	span := int64((e.bandMax-e.bandMin)*100) + 1
	return float64(cents+int64(h.Sum32())%span) / 100
}

// Estimate builds a synthetic quote for a normalized symbol. It cannot
// fail: the estimator is the true last resort of the fallback chain.
func (e *Estimator) Estimate(symbol string) quote.Quote {
	base := e.BasePrice(symbol)
	jitter := (e.randFloat()*2 - 1) * e.jitterPct
	price := base * (1 + jitter)
	change, changePercent := quote.ChangeFromPrevious(price, base)
	return quote.Quote{
		Symbol:        symbol,
		Price:         quote.Round2(price),
		Change:        change,
		ChangePercent: changePercent,
		Currency:      e.currency,
		Timestamp:     time.Now().UTC(),
		Source:        SyntheticSource,
		IsSynthetic:   true,
	}
}
