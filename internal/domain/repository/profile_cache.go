package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cf_stats/internal/common"
	"cf_stats/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// ProfileCache stores completed profiles only. Get returns common.ErrNotFound on a miss.
type ProfileCache interface {
	Get(ctx context.Context, handle string) (*model.Profile, error)
	Set(ctx context.Context, p *model.Profile) error
	Delete(ctx context.Context, handle string) error
}

const profileKeyPrefix = "cfstats:profile:"

type redisProfileCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisProfileCache(rdb *redis.Client, ttl time.Duration) ProfileCache {
	return &redisProfileCache{rdb: rdb, ttl: ttl}
}

func profileKey(handle string) string {
	return profileKeyPrefix + model.HandleKey(handle)
}

func (c *redisProfileCache) Get(ctx context.Context, handle string) (*model.Profile, error) {
	raw, err := c.rdb.Get(ctx, profileKey(handle)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("redisProfileCache.Get: %w", err)
	}
	var p model.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		// A stale layout is treated as a miss and overwritten by the next Set.
		return nil, common.ErrNotFound
	}
	p.Cached = true
	return &p, nil
}

func (c *redisProfileCache) Set(ctx context.Context, p *model.Profile) error {
	stored := *p
	stored.Cached = false
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("redisProfileCache.Set: marshal: %w", err)
	}
	if err := c.rdb.Set(ctx, profileKey(p.User.Handle), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redisProfileCache.Set: %w", err)
	}
	return nil
}

func (c *redisProfileCache) Delete(ctx context.Context, handle string) error {
	if err := c.rdb.Del(ctx, profileKey(handle)).Err(); err != nil {
		return fmt.Errorf("redisProfileCache.Delete: %w", err)
	}
	return nil
}

// NoopProfileCache always misses.
type NoopProfileCache struct{}

func (NoopProfileCache) Get(context.Context, string) (*model.Profile, error) {
	return nil, common.ErrNotFound
}
func (NoopProfileCache) Set(context.Context, *model.Profile) error { return nil }
func (NoopProfileCache) Delete(context.Context, string) error     { return nil }
