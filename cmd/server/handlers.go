package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"quoteprovider/internal/aggregate"
	"quoteprovider/internal/cache"
	"quoteprovider/internal/quote"
	"quoteprovider/internal/resolver"
)

const serviceVersion = "1.0.0"

type server struct {
	resolver *resolver.Resolver
	agg      *aggregate.Aggregator
	store    cache.Store
	logger   *slog.Logger
	cacheTTL time.Duration
}

type errorResponse struct {
	Error     bool      `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type batchResponse struct {
	aggregate.Result
	CacheDurationMinutes int       `json:"cache_duration_minutes"`
	Timestamp            time.Time `json:"timestamp"`
}

// handleStock serves GET /api/stock/{symbol}.
func (s *server) handleStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	symbol := strings.TrimPrefix(r.URL.Path, "/api/stock/")
	q, err := s.resolver.Resolve(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, quote.ErrInvalidSymbol) {
			writeError(w, http.StatusBadRequest, "invalid or missing stock symbol")
			return
		}
		s.logger.Error("resolve failed", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch stock data")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// handleStocks serves GET /api/stocks?symbols=A,B,C.
func (s *server) handleStocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	raw := r.URL.Query().Get("symbols")
	if strings.TrimSpace(raw) == "" {
		writeError(w, http.StatusBadRequest, "missing symbols parameter - provide only portfolio stocks")
		return
	}
	symbols := normalizeSymbols(strings.Split(raw, ","))

	res, err := s.agg.ResolveBatch(r.Context(), symbols)
	if err != nil {
		switch {
		case errors.Is(err, quote.ErrEmptyBatch):
			writeError(w, http.StatusBadRequest, "no valid symbols provided")
		case errors.Is(err, quote.ErrBatchTooLarge):
			writeError(w, http.StatusBadRequest, "too many symbols requested")
		default:
			s.logger.Error("batch resolve failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to fetch stocks data")
		}
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Result:               res,
		CacheDurationMinutes: int(s.cacheTTL.Minutes()),
		Timestamp:            time.Now().UTC(),
	})
}

// handleCacheClear serves POST/DELETE /api/cache-clear. Idempotent.
func (s *server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed, use DELETE or POST")
		return
	}
	s.store.Clear(r.Context())
	s.logger.Info("cache cleared")
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "cache cleared successfully",
		"timestamp": time.Now().UTC(),
	})
}

// handleHealth reports process health and static capability metadata;
// no subsystem state is consulted.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"service":           "quote-provider",
		"version":           serviceVersion,
		"timestamp":         time.Now().UTC(),
		"cache_ttl_minutes": int(s.cacheTTL.Minutes()),
		"features": []string{
			"multi-source fallback",
			"synthetic estimates",
			"batch quotes",
			"cache administration",
		},
	})
}

// normalizeSymbols trims, uppercases and dedupes while preserving order.
// Entries left empty by trimming are kept so the aggregator can report
// them individually.
func normalizeSymbols(in []string) []string {
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: true, Message: msg, Timestamp: time.Now().UTC()})
}
