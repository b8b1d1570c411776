// Package redis layers a hot membership cache over the durable dedup store.
//
// SQLite stays authoritative: cache hits short-circuit Exists, cache misses
// fall through and backfill, and every Record write lands in SQLite before
// the cache is touched. Redis being down never fails a cycle: cache errors
// are logged and the call degrades to the inner store.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"finintelbot/internal/store"

	goredis "github.com/go-redis/redis/v8"
)

// Config configures the cache connection.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Cache wraps an authoritative dedup store with Redis set membership.
type Cache struct {
	inner  store.Dedup
	client *goredis.Client
}

var _ store.Dedup = (*Cache)(nil)

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// New connects to Redis, pings it, and returns a cache in front of inner.
func New(cfg Config, inner store.Dedup) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] membership cache connected to %s", cfg.Addr)
	return &Cache{inner: inner, client: client}, nil
}

// Exists checks the cache set first, then the durable store. Positive
// results from the store are backfilled into the cache.
func (c *Cache) Exists(ctx context.Context, ns store.Namespace, key string) (bool, error) {
	hit, err := c.client.SIsMember(ctx, setKey(ns), key).Result()
	if err != nil {
		log.Printf("[redis] exists degraded to sqlite: %v", err)
	} else if hit {
		return true, nil
	}

	exists, err := c.inner.Exists(ctx, ns, key)
	if err != nil {
		return false, err
	}
	if exists {
		if err := c.client.SAdd(ctx, setKey(ns), key).Err(); err != nil {
			log.Printf("[redis] backfill failed: %v", err)
		}
	}
	return exists, nil
}

// RecordIfAbsent writes to the durable store first, then mirrors the key
// into the cache set best-effort.
func (c *Cache) RecordIfAbsent(ctx context.Context, ns store.Namespace, key, payload string) (bool, error) {
	inserted, err := c.inner.RecordIfAbsent(ctx, ns, key, payload)
	if err != nil {
		return false, err
	}
	if err := c.client.SAdd(ctx, setKey(ns), key).Err(); err != nil {
		log.Printf("[redis] cache write failed: %v", err)
	}
	return inserted, nil
}

// Close closes the Redis client and the inner store.
func (c *Cache) Close() error {
	if err := c.client.Close(); err != nil {
		c.inner.Close()
		return err
	}
	return c.inner.Close()
}

func setKey(ns store.Namespace) string {
	return "sent:" + string(ns)
}
