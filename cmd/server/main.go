package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quoteprovider/internal/aggregate"
	"quoteprovider/internal/cache"
	"quoteprovider/internal/config"
	"quoteprovider/internal/httpx"
	"quoteprovider/internal/quote"
	"quoteprovider/internal/quote/brapi"
	"quoteprovider/internal/quote/ratelimit"
	"quoteprovider/internal/quote/yahooproxy"
	"quoteprovider/internal/refresh"
	"quoteprovider/internal/resolver"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	sources := buildSources(cfg, httpClient, logger)

	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		rs, err := cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, ttl, cfg.Cache.RedisKeyPrefix, logger)
		if err != nil {
			logger.Error("redis cache", "error", err)
			os.Exit(1)
		}
		store = rs
	default:
		store = cache.NewMemory(ttl)
	}

	est := resolver.NewEstimator(cfg.Estimate.ReferencePrices, cfg.Estimate.Currency)
	res := resolver.New(store, sources, est, logger)
	agg := aggregate.New(res, cfg.Batch.MaxSymbols)

	srvHandlers := &server{
		resolver: res,
		agg:      agg,
		store:    store,
		logger:   logger,
		cacheTTL: ttl,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", srvHandlers.handleHealth)
	mux.HandleFunc("/api/stock/", srvHandlers.handleStock)
	mux.HandleFunc("/api/stocks", srvHandlers.handleStocks)
	mux.HandleFunc("/api/cache-clear", srvHandlers.handleCacheClear)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(limitBody(mux)))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var refresher *refresh.Refresher
	if cfg.Refresh.Enabled {
		refresher = refresh.New(agg, normalizeSymbols(cfg.Refresh.Symbols), time.Duration(cfg.Refresh.IntervalSec)*time.Second, logger)
		refresher.Start(ctx)
	}

	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	if refresher != nil {
		refresher.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// buildSources assembles the fallback chain in priority order, wrapping
// each source with a rate limiter when configured.
func buildSources(cfg config.Config, hc *httpx.Client, logger *slog.Logger) []quote.Source {
	var sources []quote.Source
	if cfg.Brapi.Enabled {
		var s quote.Source = brapi.New(brapi.Config{
			Endpoint: cfg.Brapi.Endpoint,
			Token:    cfg.Brapi.Token,
			Currency: cfg.Brapi.Currency,
			Timeout:  time.Duration(cfg.Brapi.TimeoutSec) * time.Second,
		}, hc)
		// Prefer token bucket with burst if RPM is set, otherwise use min-interval
		if cfg.Brapi.MaxRequestsPerMinute > 0 {
			rate := float64(cfg.Brapi.MaxRequestsPerMinute) / 60.0
			burst := cfg.Brapi.Burst
			if burst <= 0 {
				burst = 1
			}
			s = &ratelimit.TokenBucketSource{S: s, TB: ratelimit.NewTokenBucket(rate, burst)}
		} else if cfg.Brapi.MinRequestIntervalSec > 0 {
			s = &ratelimit.MinInterval{S: s, Interval: time.Duration(cfg.Brapi.MinRequestIntervalSec) * time.Second}
		}
		sources = append(sources, s)
	}
	if cfg.YahooProxy.Enabled {
		sources = append(sources, yahooproxy.New(yahooproxy.Config{
			ProxyEndpoint: cfg.YahooProxy.ProxyEndpoint,
			ChartEndpoint: cfg.YahooProxy.ChartEndpoint,
			SymbolSuffix:  cfg.YahooProxy.SymbolSuffix,
			Currency:      cfg.YahooProxy.Currency,
			Timeout:       time.Duration(cfg.YahooProxy.TimeoutSec) * time.Second,
		}, hc))
	}
	if len(sources) == 0 {
		logger.Warn("no live sources enabled, every quote will be synthetic")
	}
	return sources
}
