package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"quoteprovider/internal/quote"
)

// Redis is a Store backed by a Redis instance, for deployments where
// several processes should share one cache window. Expiry is delegated
// to Redis key TTLs. Cache I/O failures degrade to misses: a broken
// cache must never fail a resolution.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func NewRedis(addr, password string, db int, ttl time.Duration, prefix string, logger *slog.Logger) (*Redis, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Redis{client: client, ttl: ttl, prefix: prefix, logger: logger}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (quote.Quote, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("redis get failed", "key", key, "error", err)
		}
		return quote.Quote{}, false
	}
	var q quote.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		r.logger.Warn("redis entry corrupt", "key", key, "error", err)
		return quote.Quote{}, false
	}
	return q, true
}

func (r *Redis) Set(ctx context.Context, key string, q quote.Quote) {
	data, err := json.Marshal(q)
	if err != nil {
		r.logger.Warn("redis marshal failed", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", "key", key, "error", err)
	}
}

// Clear deletes every key under the configured prefix.
func (r *Redis) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("redis scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("redis clear failed", "error", err)
	}
}

// Ping reports backend reachability, for liveness checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
