// Package memcache is an in-process ports.CacheService backed by fastcache.
package memcache

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/VictoriaMetrics/fastcache"
)

// ErrMiss is returned by Get for absent or expired keys.
var ErrMiss = errors.New("memcache: miss")

// Cache stores values prefixed with an 8-byte expiry (unix nanos).
type Cache struct {
	c   *fastcache.Cache
	now func() time.Time
}

// New creates a cache bounded to maxBytes (fastcache rounds up to 32MB).
func New(maxBytes int) *Cache {
	return &Cache{c: fastcache.New(maxBytes), now: time.Now}
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	buf, ok := c.c.HasGet(nil, []byte(key))
	if !ok || len(buf) < 8 {
		return nil, ErrMiss
	}
	exp := int64(binary.BigEndian.Uint64(buf[:8]))
	if exp != 0 && c.now().UnixNano() >= exp {
		c.c.Del([]byte(key))
		return nil, ErrMiss
	}
	return buf[8:], nil
}

// Set stores a value with a TTL in seconds; zero or less never expires.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	var exp int64
	if ttlSeconds > 0 {
		exp = c.now().Add(time.Duration(ttlSeconds) * time.Second).UnixNano()
	}
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(exp))
	copy(buf[8:], value)
	c.c.Set([]byte(key), buf)
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.c.Del([]byte(key))
	return nil
}

// Close releases the cache memory.
func (c *Cache) Close() {
	c.c.Reset()
}
