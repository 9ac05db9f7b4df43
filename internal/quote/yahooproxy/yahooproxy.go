package yahooproxy

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

// Config controls the proxied Yahoo source behavior.
type Config struct {
	Name          string        // display name, default: Yahoo Finance (proxy)
	ProxyEndpoint string        // CORS proxy prefix, default: https://api.allorigins.win/get?url=
	ChartEndpoint string        // upstream chart API, default: https://query1.finance.yahoo.com/v8/finance/chart
	SymbolSuffix  string        // exchange suffix appended upstream, default: .SA
	Currency      string        // fallback when the provider omits it, default: BRL
	Timeout       time.Duration // per-call budget, default: 10s
}

// Source queries the Yahoo chart API through a public CORS proxy. It is
// the secondary source: higher latency and less reliable than Brapi, used
// only when the primary fails.
//
// The chart API reports only prices, so change and changePercent are
// always derived here as (price-previousClose)/previousClose*100.
type Source struct {
	cfg    Config
	client httpx.HTTPClient
}

func New(cfg Config, hc httpx.HTTPClient) *Source {
	if cfg.Name == "" { cfg.Name = "Yahoo Finance (proxy)" }
	if cfg.ProxyEndpoint == "" { cfg.ProxyEndpoint = "https://api.allorigins.win/get?url=" }
	if cfg.ChartEndpoint == "" { cfg.ChartEndpoint = "https://query1.finance.yahoo.com/v8/finance/chart" }
	if cfg.SymbolSuffix == "" { cfg.SymbolSuffix = ".SA" }
	if cfg.Currency == "" { cfg.Currency = "BRL" }
	if cfg.Timeout <= 0 { cfg.Timeout = 10 * time.Second }
	return &Source{cfg: cfg, client: hc}
}

func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) FetchQuote(ctx context.Context, symbol string) (quote.Quote, error) {
	symbol = quote.NormalizeSymbol(symbol)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	target := fmt.Sprintf("%s/%s%s", strings.TrimRight(s.cfg.ChartEndpoint, "/"), symbol, s.cfg.SymbolSuffix)
	u := s.cfg.ProxyEndpoint + url.QueryEscape(target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("yahooproxy: %w: %v", quote.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("yahooproxy: %w: %v", quote.TransportErr(err), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return quote.Quote{}, fmt.Errorf("yahooproxy: %w: http %d", quote.ErrSourceUnavailable, resp.StatusCode)
	}

	// The proxy wraps the upstream payload as a JSON string in "contents".
	var proxied proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&proxied); err != nil {
		return quote.Quote{}, fmt.Errorf("yahooproxy: %w: decode proxy envelope: %v", quote.ErrSourceData, err)
	}
	var chart chartResponse
	if err := json.Unmarshal([]byte(proxied.Contents), &chart); err != nil {
		return quote.Quote{}, fmt.Errorf("yahooproxy: %w: decode chart payload: %v", quote.ErrSourceData, err)
	}
	if len(chart.Chart.Result) == 0 {
		return quote.Quote{}, fmt.Errorf("yahooproxy: %w: no chart data", quote.ErrSourceData)
	}
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return quote.Quote{}, fmt.Errorf("yahooproxy: %w: missing price", quote.ErrSourceData)
	}

	price := *meta.RegularMarketPrice
	previous := price
	if meta.PreviousClose != nil && *meta.PreviousClose != 0 {
		previous = *meta.PreviousClose
	}
	change, changePercent := quote.ChangeFromPrevious(price, previous)

	currency := meta.Currency
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

type proxyResponse struct {
	Contents string `json:"contents"`
}

// Response model based on the v8 chart endpoint; only meta is consumed.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta meta `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

type meta struct {
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	PreviousClose      *float64 `json:"previousClose"`
	Currency           string   `json:"currency"`
}
