package catalog

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"booksearch/internal/models"

	"github.com/redis/go-redis/v9"
)

// Cache stores raw search results by key. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NewRedisClient initializes a redis client.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisCache is a Cache over a go-redis client.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache { return &RedisCache{rdb: rdb} }

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Cached serves repeated queries from a Cache. Cache failures fall through to
// the wrapped provider; upstream errors are never cached.
type Cached struct {
	next  Provider
	cache Cache
	ttl   time.Duration
}

func NewCached(next Provider, cache Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cached{next: next, cache: cache, ttl: ttl}
}

func cacheKey(query string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "catalog:search:" + hex.EncodeToString(sum[:])
}

func (c *Cached) Search(ctx context.Context, query string) ([]models.BookRecord, error) {
	key := cacheKey(query)

	if raw, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var hit []models.BookRecord
		if json.Unmarshal(raw, &hit) == nil {
			return hit, nil
		}
	}

	out, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		_ = c.cache.Set(ctx, key, b, c.ttl)
	}
	return out, nil
}
