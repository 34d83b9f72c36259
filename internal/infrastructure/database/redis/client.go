// Package redis provides the connection handle, the JSON result cache used
// by the HTTP layer, and a simple distributed lock for the batch workers.
package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/DisruptMetrics/internal/config"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// commands is the narrow surface the cache and lock depend on. *Client
// implements it; tests substitute a function-field fake.
type commands interface {
	getBytes(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	del(ctx context.Context, keys ...string) error
	exists(ctx context.Context, key string) (bool, error)
	deleteByPattern(ctx context.Context, pattern string) (int64, error)
	setNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
	ping(ctx context.Context) error
}

// Client wraps the go-redis client configured from RedisConfig.
type Client struct {
	rdb    *redis.Client
	cfg    config.RedisConfig
	logger logging.Logger

	closeOnce sync.Once
}

// NewClient connects to the configured instance and verifies it with a ping.
func NewClient(cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to connect to redis")
	}

	log.Info("connected to redis",
		logging.String("addr", cfg.Addr),
		logging.Int("db", cfg.DB),
	)

	return &Client{rdb: rdb, cfg: cfg, logger: log}, nil
}

// HealthCheck pings the instance.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "redis health check failed")
	}
	return nil
}

// Close releases the connection pool. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.rdb.Close()
		if err == nil {
			c.logger.Info("redis client closed")
		}
	})
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// commands implementation
// ─────────────────────────────────────────────────────────────────────────────

func (c *Client) getBytes(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *Client) set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *Client) del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Client) exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// deleteByPattern walks the keyspace with SCAN and deletes every match,
// returning the number of keys removed.
func (c *Client) deleteByPattern(ctx context.Context, pattern string) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			deleted += n
			if err != nil {
				return deleted, err
			}
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (c *Client) setNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return c.rdb.Eval(ctx, script, keys, args...).Result()
}

func (c *Client) ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
