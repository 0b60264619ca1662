package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

// StateStore is the durable store behind the cache.
type StateStore interface {
	Save(ctx context.Context, planID string, state model.PlanState) error
	Load(ctx context.Context, planID string) (model.PlanState, error)
}

// RedisStateCache is a write-through cache of plan states in front of a
// StateStore.  Redis failures never fail a request; the cache is simply
// bypassed and the error logged.
type RedisStateCache struct {
	next   StateStore
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

// NewRedisStateCache wraps next.  A nil client returns a cache that
// always delegates.
func NewRedisStateCache(next StateStore, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStateCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStateCache{next: next, rdb: rdb, ttl: ttl, prefix: "planstate:", log: logger.Named("state_cache")}
}

func (c *RedisStateCache) key(planID string) string { return c.prefix + planID }

// Save writes to the durable store first and caches only on success.
func (c *RedisStateCache) Save(ctx context.Context, planID string, state model.PlanState) error {
	if err := c.next.Save(ctx, planID, state); err != nil {
		if c.rdb != nil {
			// drop the entry so a later Load cannot serve a state the
			// durable store never accepted
			_ = c.rdb.Del(ctx, c.key(planID)).Err()
		}
		return err
	}
	c.put(ctx, planID, state)
	return nil
}

// Load serves from Redis when possible and fills the cache on a miss.
func (c *RedisStateCache) Load(ctx context.Context, planID string) (model.PlanState, error) {
	if c.rdb != nil {
		body, err := c.rdb.Get(ctx, c.key(planID)).Bytes()
		switch {
		case err == nil:
			var st model.PlanState
			if jerr := json.Unmarshal(body, &st); jerr == nil {
				return st, nil
			}
			c.log.Warn("discarding undecodable cached state", zap.String("plan_id", planID))
		case !errors.Is(err, redis.Nil):
			c.log.Warn("cache read failed", zap.String("plan_id", planID), zap.Error(err))
		}
	}
	st, err := c.next.Load(ctx, planID)
	if err != nil {
		return model.PlanState{}, err
	}
	c.put(ctx, planID, st)
	return st, nil
}

func (c *RedisStateCache) put(ctx context.Context, planID string, st model.PlanState) {
	if c.rdb == nil {
		return
	}
	body, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(planID), body, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("plan_id", planID), zap.Error(err))
	}
}
