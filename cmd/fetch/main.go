package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Rhymond/go-money"

	"quoteprovider/internal/aggregate"
	"quoteprovider/internal/cache"
	"quoteprovider/internal/config"
	"quoteprovider/internal/httpx"
	"quoteprovider/internal/quote"
	"quoteprovider/internal/quote/brapi"
	"quoteprovider/internal/quote/yahooproxy"
	"quoteprovider/internal/resolver"
)

// fetch resolves a set of symbols once and prints the result: a quick
// way to exercise the fallback chain from a shell.
func main() {
	var symbolsCSV string
	var configPath string
	var timeout int
	var asJSON bool

	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "PETR4,VALE3,ITUB4"), "comma-separated tickers")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.IntVar(&timeout, "timeout", 0, "request timeout seconds (overrides config)")
	flag.BoolVar(&asJSON, "json", false, "print raw JSON instead of a table")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if timeout > 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	var sources []quote.Source
	if cfg.Brapi.Enabled {
		sources = append(sources, brapi.New(brapi.Config{
			Endpoint: cfg.Brapi.Endpoint,
			Token:    cfg.Brapi.Token,
			Currency: cfg.Brapi.Currency,
			Timeout:  time.Duration(cfg.Brapi.TimeoutSec) * time.Second,
		}, httpClient))
	}
	if cfg.YahooProxy.Enabled {
		sources = append(sources, yahooproxy.New(yahooproxy.Config{
			ProxyEndpoint: cfg.YahooProxy.ProxyEndpoint,
			ChartEndpoint: cfg.YahooProxy.ChartEndpoint,
			SymbolSuffix:  cfg.YahooProxy.SymbolSuffix,
			Currency:      cfg.YahooProxy.Currency,
			Timeout:       time.Duration(cfg.YahooProxy.TimeoutSec) * time.Second,
		}, httpClient))
	}

	store := cache.NewMemory(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	est := resolver.NewEstimator(cfg.Estimate.ReferencePrices, cfg.Estimate.Currency)
	res := resolver.New(store, sources, est, logger)
	agg := aggregate.New(res, cfg.Batch.MaxSymbols)

	symbols := dedupe(splitCSV(symbolsCSV))
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec+5)*time.Second)
	defer cancel()

	batch, err := agg.ResolveBatch(ctx, symbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
		os.Exit(1)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(batch)
		return
	}

	rows := make([]quote.Quote, 0, len(batch.Results))
	for _, q := range batch.Results {
		rows = append(rows, q)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })

	fmt.Printf("%-8s %12s %10s %9s  %s\n", "SYMBOL", "PRICE", "CHANGE", "CHG%", "SOURCE")
	for _, q := range rows {
		tag := q.Source
		if q.IsSynthetic {
			tag += " (synthetic)"
		}
		fmt.Printf("%-8s %12s %10.2f %8.2f%%  %s\n",
			q.Symbol, formatPrice(q), q.Change, q.ChangePercent, tag)
	}
	for _, e := range batch.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", e)
	}
	fmt.Printf("%d/%d resolved\n", batch.TotalSuccessful, batch.TotalRequested)
}

// formatPrice renders the price in its currency, e.g. "R$38,45".
func formatPrice(q quote.Quote) string {
	code := q.Currency
	if money.GetCurrency(code) == nil {
		code = money.BRL
	}
	return money.New(int64(math.Round(q.Price*100)), code).Display()
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		sym := quote.NormalizeSymbol(s)
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" { out = append(out, p) }
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" { return v }
	return def
}
