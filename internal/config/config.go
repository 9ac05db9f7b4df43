package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Brapi struct {
	Enabled               bool   `json:"enabled"`
	Endpoint              string `json:"endpoint"`
	Token                 string `json:"token"`
	Currency              string `json:"currency"`
	TimeoutSec            int    `json:"timeout_sec"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
	Burst                 int    `json:"burst"`
}

type YahooProxy struct {
	Enabled       bool   `json:"enabled"`
	ProxyEndpoint string `json:"proxy_endpoint"`
	ChartEndpoint string `json:"chart_endpoint"`
	SymbolSuffix  string `json:"symbol_suffix"`
	Currency      string `json:"currency"`
	TimeoutSec    int    `json:"timeout_sec"`
}

type Cache struct {
	Backend        string `json:"backend"` // "memory" or "redis"
	TTLSeconds     int    `json:"ttl_sec"`
	RedisAddr      string `json:"redis_addr"`
	RedisPassword  string `json:"redis_password"`
	RedisDB        int    `json:"redis_db"`
	RedisKeyPrefix string `json:"redis_key_prefix"`
}

type Batch struct {
	MaxSymbols int `json:"max_symbols"`
}

type Estimate struct {
	Currency string `json:"currency"`
	// ReferencePrices overrides the built-in reference table when set.
	ReferencePrices map[string]float64 `json:"reference_prices"`
}

type Refresh struct {
	Enabled     bool     `json:"enabled"`
	IntervalSec int      `json:"interval_sec"`
	Symbols     []string `json:"symbols"`
}

type Config struct {
	Server     Server     `json:"server"`
	Brapi      Brapi      `json:"brapi"`
	YahooProxy YahooProxy `json:"yahoo_proxy"`
	Cache      Cache      `json:"cache"`
	Batch      Batch      `json:"batch"`
	Estimate   Estimate   `json:"estimate"`
	Refresh    Refresh    `json:"refresh"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 15},
		Brapi: Brapi{
			Enabled:    true,
			Endpoint:   "https://brapi.dev/api/quote",
			Currency:   "BRL",
			TimeoutSec: 8,
		},
		YahooProxy: YahooProxy{
			Enabled:       true,
			ProxyEndpoint: "https://api.allorigins.win/get?url=",
			ChartEndpoint: "https://query1.finance.yahoo.com/v8/finance/chart",
			SymbolSuffix:  ".SA",
			Currency:      "BRL",
			TimeoutSec:    10,
		},
		Cache: Cache{
			Backend:        "memory",
			TTLSeconds:     600,
			RedisAddr:      "localhost:6379",
			RedisKeyPrefix: "quotes:",
		},
		Batch:    Batch{MaxSymbols: 20},
		Estimate: Estimate{Currency: "BRL"},
		Refresh:  Refresh{Enabled: false, IntervalSec: 600},
	}
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
	}

	if v := os.Getenv("BRAPI_ENABLED"); v != "" { setBool(&cfg.Brapi.Enabled, v) }
	if v := os.Getenv("BRAPI_ENDPOINT"); v != "" { cfg.Brapi.Endpoint = v }
	if v := os.Getenv("BRAPI_TOKEN"); v != "" { cfg.Brapi.Token = v }
	if v := os.Getenv("BRAPI_CURRENCY"); v != "" { cfg.Brapi.Currency = v }
	if v := os.Getenv("BRAPI_TIMEOUT_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Brapi.TimeoutSec = x }
	}
	if v := os.Getenv("BRAPI_MAX_RPM"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Brapi.MaxRequestsPerMinute = x }
	}
	if v := os.Getenv("BRAPI_MIN_INTERVAL_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Brapi.MinRequestIntervalSec = x }
	}
	if v := os.Getenv("BRAPI_BURST"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Brapi.Burst = x }
	}

	if v := os.Getenv("YAHOO_PROXY_ENABLED"); v != "" { setBool(&cfg.YahooProxy.Enabled, v) }
	if v := os.Getenv("YAHOO_PROXY_ENDPOINT"); v != "" { cfg.YahooProxy.ProxyEndpoint = v }
	if v := os.Getenv("YAHOO_CHART_ENDPOINT"); v != "" { cfg.YahooProxy.ChartEndpoint = v }
	if v := os.Getenv("YAHOO_SYMBOL_SUFFIX"); v != "" { cfg.YahooProxy.SymbolSuffix = v }
	if v := os.Getenv("YAHOO_TIMEOUT_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.YahooProxy.TimeoutSec = x }
	}

	if v := os.Getenv("CACHE_BACKEND"); v != "" { cfg.Cache.Backend = strings.ToLower(v) }
	if v := os.Getenv("CACHE_TTL_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Cache.TTLSeconds = x }
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" { cfg.Cache.RedisAddr = v }
	if v := os.Getenv("REDIS_PASSWORD"); v != "" { cfg.Cache.RedisPassword = v }
	if v := os.Getenv("REDIS_DB"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Cache.RedisDB = x }
	}
	if v := os.Getenv("REDIS_KEY_PREFIX"); v != "" { cfg.Cache.RedisKeyPrefix = v }

	if v := os.Getenv("BATCH_MAX_SYMBOLS"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Batch.MaxSymbols = x }
	}

	if v := os.Getenv("REFRESH_ENABLED"); v != "" { setBool(&cfg.Refresh.Enabled, v) }
	if v := os.Getenv("REFRESH_INTERVAL_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Refresh.IntervalSec = x }
	}
	if v := os.Getenv("REFRESH_SYMBOLS"); v != "" { cfg.Refresh.Symbols = splitCSV(v) }
}

func setBool(dst *bool, v string) {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		*dst = true
	case "0", "false", "no", "n":
		*dst = false
	}
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
