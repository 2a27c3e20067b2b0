package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nayher/commerce-backend/pkg/logger"
)

// Cache is a Redis-backed response cache for public GET endpoints. A nil
// client disables it entirely.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

type cacheRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rec *cacheRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *cacheRecorder) Write(p []byte) (int, error) {
	rec.body.Write(p)
	return rec.ResponseWriter.Write(p)
}

// Wrap caches successful GET responses under a key derived from the request.
func (c *Cache) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c == nil || c.client == nil || r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := cacheKey(r)
		ctx := r.Context()

		if cached, err := c.client.Get(ctx, key).Bytes(); err == nil && len(cached) > 0 {
			logger.Logger.Debug().Str("path", r.URL.Path).Msg("Cache hit")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "HIT")
			w.Write(cached)
			return
		}

		rec := &cacheRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		rec.Header().Set("X-Cache", "MISS")
		next.ServeHTTP(rec, r)

		if rec.statusCode == http.StatusOK {
			if err := c.client.Set(ctx, key, rec.body.Bytes(), c.ttl).Err(); err != nil {
				logger.Logger.Warn().Err(err).Str("cache_key", key).Msg("Failed to cache response")
			}
		}
	}
}

// Invalidate drops every cached response. Admin mutations call this so public
// reads never serve stale catalog data longer than one request.
func (c *Cache) Invalidate(r *http.Request) {
	if c == nil || c.client == nil {
		return
	}
	ctx := r.Context()

	iter := c.client.Scan(ctx, 0, "cache:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn(ctx).Err(err).Msg("Cache invalidation scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn(ctx).Err(err).Msg("Cache invalidation failed")
		return
	}
	logger.Logger.Debug().Int("count", len(keys)).Msg("Cache invalidated")
}

func cacheKey(r *http.Request) string {
	components := fmt.Sprintf("%s:%s:%s", r.Method, r.URL.Path, r.URL.RawQuery)
	hash := sha256.Sum256([]byte(components))
	return "cache:" + hex.EncodeToString(hash[:])
}
