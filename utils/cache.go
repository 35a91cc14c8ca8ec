package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ByteCache is a TTL cache for serialized payloads. Callers own their cache
// instance and pass it where needed; there is no package-level cache state.
type ByteCache interface {
	GetBytes(key string) ([]byte, bool)
	SetBytes(key string, b []byte, ttl time.Duration)
}

// RedisCache is a ByteCache backed by a Redis client. A nil or unreachable
// client degrades to cache misses so callers fall through to their source.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) GetBytes(key string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if Sugar != nil {
			Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

func (c *RedisCache) SetBytes(key string, b []byte, ttl time.Duration) {
	if c.client == nil || ttl <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache set failed key=%s err=%v", key, err)
		}
	}
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process ByteCache guarded by a mutex. Used where a
// Redis round-trip is not worth it (short-lived upstream auth tokens) and as
// the cache in tests.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]memEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]memEntry)}
}

func (c *MemoryCache) GetBytes(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.data, key) // cleanup expired
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) SetBytes(key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = memEntry{value: b, expiresAt: time.Now().Add(ttl)}
}
