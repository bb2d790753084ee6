package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/KigaliAI/youtufy-app/internal/model"
	"github.com/KigaliAI/youtufy-app/pkg/hash"
)

// Redis caches aggregation results per user with a per-key TTL. If redisURL
// is empty or the connection fails, the client stays nil and every operation
// becomes a no-op miss, so a missing Redis degrades to "always refetch"
// rather than an outage.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(redisURL string) *Redis {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, result caching disabled")
		return &Redis{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Str("url", redisURL).Err(err).Msg("redis: invalid URL, result caching disabled")
		return &Redis{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, result caching disabled")
		return &Redis{}
	}

	log.Info().Msg("redis: connected, result caching enabled")
	return &Redis{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *Redis) Client() *redis.Client { return c.rdb }

func (c *Redis) Get(ctx context.Context, userID string) (*model.AggregationResult, bool, error) {
	if c.rdb == nil {
		return nil, false, nil
	}
	data, err := c.rdb.Get(ctx, resultKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var res model.AggregationResult
	if err := json.Unmarshal(data, &res); err != nil {
		// A corrupt entry is treated as a miss and overwritten on Put.
		log.Warn().Str("user", hash.LogID(userID)).Err(err).Msg("redis: corrupt cache entry, ignoring")
		return nil, false, nil
	}
	return &res, true, nil
}

func (c *Redis) Put(ctx context.Context, userID string, res *model.AggregationResult, ttl time.Duration) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.rdb.Set(ctx, resultKey(userID), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *Redis) Invalidate(ctx context.Context, userID string) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, resultKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close shuts down the Redis connection.
func (c *Redis) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func resultKey(userID string) string {
	return fmt.Sprintf("subs:%s", hash.UserKey(userID))
}
