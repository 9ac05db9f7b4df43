package brapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quoteprovider/internal/httpx"
	"quoteprovider/internal/quote"
)

// Config controls the Brapi source behavior.
type Config struct {
	Name     string        // display name, default: Brapi Finance
	Endpoint string        // quote endpoint, default: https://brapi.dev/api/quote
	Token    string        // optional; if set, sent as Bearer token
	Currency string        // fallback when the provider omits it, default: BRL
	Timeout  time.Duration // per-call budget, default: 8s
}

// Source queries Brapi directly by symbol. It is the primary source:
// a Brazilian API, most accurate for B3 tickers and rate-limit-friendly.
//
// change and changePercent are taken verbatim from the provider when
// present; only when the provider supplies just a previous close are they
// derived from it.
type Source struct {
	cfg    Config
	client httpx.HTTPClient
}

func New(cfg Config, hc httpx.HTTPClient) *Source {
	if cfg.Name == "" { cfg.Name = "Brapi Finance" }
	if cfg.Endpoint == "" { cfg.Endpoint = "https://brapi.dev/api/quote" }
	if cfg.Currency == "" { cfg.Currency = "BRL" }
	if cfg.Timeout <= 0 { cfg.Timeout = 8 * time.Second }
	return &Source{cfg: cfg, client: hc}
}

func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) FetchQuote(ctx context.Context, symbol string) (quote.Quote, error) {
	symbol = quote.NormalizeSymbol(symbol)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	u := fmt.Sprintf("%s/%s?fundamental=false&dividends=false",
		strings.TrimRight(s.cfg.Endpoint, "/"), url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("brapi: %w: %v", quote.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("brapi: %w: %v", quote.TransportErr(err), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return quote.Quote{}, fmt.Errorf("brapi: %w: http %d", quote.ErrSourceUnavailable, resp.StatusCode)
	}

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return quote.Quote{}, fmt.Errorf("brapi: %w: decode: %v", quote.ErrSourceData, err)
	}
	if len(api.Results) == 0 {
		return quote.Quote{}, fmt.Errorf("brapi: %w: empty result set", quote.ErrSourceData)
	}
	r := api.Results[0]
	if r.RegularMarketPrice == nil {
		return quote.Quote{}, fmt.Errorf("brapi: %w: missing price", quote.ErrSourceData)
	}

	price := *r.RegularMarketPrice
	var change, changePercent float64
	switch {
	case r.RegularMarketChange != nil && r.RegularMarketChangePercent != nil:
		change = quote.Round2(*r.RegularMarketChange)
		changePercent = quote.Round2(*r.RegularMarketChangePercent)
	case r.RegularMarketPreviousClose != nil:
		change, changePercent = quote.ChangeFromPrevious(price, *r.RegularMarketPreviousClose)
	}

	currency := r.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}
	return quote.Quote{
		Symbol:        symbol,
		Price:         quote.Round2(price),
		Change:        change,
		ChangePercent: changePercent,
		Currency:      currency,
		Timestamp:     time.Now().UTC(),
		Source:        s.cfg.Name,
	}, nil
}

// Response model based on brapi.dev /api/quote.
type apiResponse struct {
	Results []result `json:"results"`
}

type result struct {
	Symbol                     string   `json:"symbol"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketChange        *float64 `json:"regularMarketChange"`
	RegularMarketChangePercent *float64 `json:"regularMarketChangePercent"`
	RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose"`
	Currency                   string   `json:"currency"`
}
