// Package cache keeps the most recent rendered packet per ticker in Redis
// so bot commands can answer without rebuilding.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL keeps a packet until the next trading day's run.
const DefaultTTL = 24 * time.Hour

const indexKey = "packets:index"

// PacketCache stores rendered packets under packet:<TICKER>.
type PacketCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPacketCache wraps client. A non-positive ttl uses DefaultTTL.
func NewPacketCache(client *redis.Client, ttl time.Duration) *PacketCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PacketCache{client: client, ttl: ttl}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr string, db int, ttl time.Duration) (*PacketCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewPacketCache(client, ttl), nil
}

// Key returns the Redis key for ticker.
func Key(ticker string) string {
	return "packet:" + strings.ToUpper(strings.TrimSpace(ticker))
}

// Put stores text for ticker and indexes it by build time.
func (c *PacketCache) Put(ctx context.Context, ticker, text string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	now := time.Now()

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, Key(ticker), text, c.ttl)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(now.Unix()), Member: ticker})
	// Drop index entries whose packet has expired.
	pipe.ZRemRangeByScore(ctx, indexKey, "-inf", fmt.Sprintf("(%d", now.Add(-c.ttl).Unix()))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache packet %s: %w", ticker, err)
	}
	return nil
}

// Get returns the cached packet for ticker. ok is false on a miss.
func (c *PacketCache) Get(ctx context.Context, ticker string) (text string, ok bool, err error) {
	text, err = c.client.Get(ctx, Key(ticker)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cached packet: %w", err)
	}
	return text, true, nil
}

// Recent lists tickers with a cached packet, newest first.
func (c *PacketCache) Recent(ctx context.Context) ([]string, error) {
	return c.client.ZRevRange(ctx, indexKey, 0, -1).Result()
}

// Close closes the underlying client.
func (c *PacketCache) Close() error {
	return c.client.Close()
}
