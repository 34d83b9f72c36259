package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = appErrors.New(appErrors.ErrCodeNotFound, "cache miss")

// Cache is a JSON value cache with a key prefix and a default TTL.
// Concurrent loads of the same missing key collapse to one loader call.
type Cache struct {
	cmds       commands
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration

	sf singleflight.Group
}

// CacheOption customises a Cache.
type CacheOption func(*Cache)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) CacheOption {
	return func(c *Cache) { c.prefix = prefix }
}

// WithDefaultTTL overrides the TTL used when Set is called with ttl 0.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.defaultTTL = ttl }
}

// NewCache builds a Cache on top of an established Client.
func NewCache(client *Client, log logging.Logger, opts ...CacheOption) *Cache {
	return newCacheWithCommands(client, log, opts...)
}

func newCacheWithCommands(cmds commands, log logging.Logger, opts ...CacheOption) *Cache {
	c := &Cache{
		cmds:       cmds,
		logger:     log,
		prefix:     "disrupt:",
		defaultTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) fullKey(key string) string {
	return c.prefix + key
}

// jitterTTL spreads expirations by +/-10% so hot keys loaded together do not
// all expire together.
func (c *Cache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

// Get unmarshals the cached value for key into dest. Returns ErrCacheMiss
// when the key is absent.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, found, err := c.cmds.getBytes(ctx, c.fullKey(key))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to read from cache")
	}
	if !found {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to decode cached value")
	}
	return nil
}

// Set stores value under key. A zero ttl uses the default.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to encode value for cache")
	}
	if err := c.cmds.set(ctx, c.fullKey(key), data, c.jitterTTL(ttl)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to write to cache")
	}
	return nil
}

// Delete removes the given keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.cmds.del(ctx, full...); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to delete cached keys")
	}
	return nil
}

// Exists reports whether key is present.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := c.cmds.exists(ctx, c.fullKey(key))
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to check cached key")
	}
	return ok, nil
}

// InvalidateAll removes every key under the cache's prefix. Called after a
// batch run replaces the panel.
func (c *Cache) InvalidateAll(ctx context.Context) (int64, error) {
	n, err := c.cmds.deleteByPattern(ctx, c.prefix+"*")
	if err != nil {
		return n, appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to invalidate cache")
	}
	c.logger.Debug("cache invalidated", logging.Int64("keys", n))
	return n, nil
}

// GetOrSet returns the cached value for key, loading and caching it on a
// miss. Cache transport errors degrade to calling the loader directly.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !appErrors.IsCode(err, appErrors.ErrCodeNotFound) {
		c.logger.Warn("cache read degraded", logging.String("key", key), logging.Err(err))
	}

	data, err, _ := c.sf.Do(key, func() (interface{}, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, value, ttl); err != nil {
			c.logger.Warn("cache write degraded", logging.String("key", key), logging.Err(err))
		}
		return json.Marshal(value)
	})
	if err != nil {
		return err
	}
	raw, ok := data.([]byte)
	if !ok {
		return appErrors.New(appErrors.ErrCodeInternal, "unexpected singleflight payload")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to decode loaded value")
	}
	return nil
}

// Ping verifies connectivity through the commands surface.
func (c *Cache) Ping(ctx context.Context) error {
	return c.cmds.ping(ctx)
}
