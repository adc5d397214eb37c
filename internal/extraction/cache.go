package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"letter-backend/internal/documents"
	"letter-backend/internal/shared/util"
)

const (
	// DefaultCacheTTL is how long a successful extraction is remembered.
	DefaultCacheTTL = 24 * time.Hour

	cacheKeyPrefix = "letter:extract:"
)

// Cache stores successful extraction results by content hash.
type Cache interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Set(ctx context.Context, key string, res Result) error
}

// CacheKey hashes the content type and bytes of a document.
func CacheKey(doc documents.Document) string {
	return util.ContentHash([]byte(doc.ContentType), []byte{0}, doc.Data)
}

// RedisCache is a Cache backed by Redis string keys with a TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache wraps a connected client. ttl <= 0 uses DefaultCacheTTL.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type cachedResult struct {
	Text   string `json:"text"`
	Method Method `json:"method"`
}

func (c *RedisCache) Get(ctx context.Context, key string) (Result, bool, error) {
	raw, err := c.rdb.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("extraction cache GET: %w", err)
	}
	var entry cachedResult
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Result{}, false, fmt.Errorf("extraction cache decode: %w", err)
	}
	return Result{Text: entry.Text, Method: entry.Method}, true, nil
}

// Set stores only successful results; others are ignored.
func (c *RedisCache) Set(ctx context.Context, key string, res Result) error {
	if res.Method == MethodNone || res.Text == "" {
		return nil
	}
	payload, err := json.Marshal(cachedResult{Text: res.Text, Method: res.Method})
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("extraction cache SET: %w", err)
	}
	return nil
}
