package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"itinerary-engine/internal/ports"
)

// TTLs per cache: pairwise durations stay fresh for a day, walking paths for
// a week (street geometry changes far slower than crowd-dependent timing).
const (
	DurationTTL   = 24 * time.Hour
	DirectionsTTL = 7 * 24 * time.Hour
)

// RedisDurationCache is a TTL-expiring hot cache for pairwise travel times.
type RedisDurationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDurationCache(rdb *redis.Client) *RedisDurationCache {
	return &RedisDurationCache{rdb: rdb, ttl: DurationTTL}
}

func (c *RedisDurationCache) Get(ctx context.Context, key ports.DurationKey) (ports.DurationEntry, error) {
	b, err := c.rdb.Get(ctx, "duration:"+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.DurationEntry{}, ports.ErrCacheMiss
	}
	if err != nil {
		return ports.DurationEntry{}, fmt.Errorf("get duration cache: %w", err)
	}

	var entry ports.DurationEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		return ports.DurationEntry{}, fmt.Errorf("get duration cache: decode entry: %w", err)
	}
	return entry, nil
}

func (c *RedisDurationCache) Put(ctx context.Context, key ports.DurationKey, entry ports.DurationEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("put duration cache: encode entry: %w", err)
	}
	if err := c.rdb.Set(ctx, "duration:"+key.String(), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("put duration cache: %w", err)
	}
	return nil
}

// RedisDirectionsCache is a TTL-expiring hot cache for encoded polylines.
type RedisDirectionsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDirectionsCache(rdb *redis.Client) *RedisDirectionsCache {
	return &RedisDirectionsCache{rdb: rdb, ttl: DirectionsTTL}
}

func (c *RedisDirectionsCache) Get(ctx context.Context, key ports.DirectionsKey) (ports.DirectionsEntry, error) {
	b, err := c.rdb.Get(ctx, "directions:"+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.DirectionsEntry{}, ports.ErrCacheMiss
	}
	if err != nil {
		return ports.DirectionsEntry{}, fmt.Errorf("get directions cache: %w", err)
	}

	var entry ports.DirectionsEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		return ports.DirectionsEntry{}, fmt.Errorf("get directions cache: decode entry: %w", err)
	}
	return entry, nil
}

func (c *RedisDirectionsCache) Put(ctx context.Context, key ports.DirectionsKey, entry ports.DirectionsEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("put directions cache: encode entry: %w", err)
	}
	if err := c.rdb.Set(ctx, "directions:"+key.String(), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("put directions cache: %w", err)
	}
	return nil
}
