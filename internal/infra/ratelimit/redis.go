package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carverify/internal/config"
	"carverify/internal/domain"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "carverify:ratelimit:"

// incrWindow bumps the counter and starts its expiry on first use, returning
// the count and the remaining TTL in milliseconds.
var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisLimiter(cfg config.Config) (*RedisLimiter, error) {
	if cfg.RedisAddr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &RedisLimiter{client: client, now: time.Now}, nil
}

func (r *RedisLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisLimiter) Close() error {
	return r.client.Close()
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, d time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	ms := d.Milliseconds()
	if ms <= 0 {
		ms = 1000
	}
	res, err := incrWindow.Run(ctx, r.client, []string{redisKeyPrefix + key}, ms).Result()
	if err != nil {
		return domain.RateLimitDecision{}, fmt.Errorf("redis rate limit: %w", err)
	}
	return decide(res, limit, r.now())
}

// decide turns the script reply {count, ttl_ms} into a decision.
func decide(reply any, limit int, now time.Time) (domain.RateLimitDecision, error) {
	values, ok := reply.([]any)
	if !ok || len(values) < 2 {
		return domain.RateLimitDecision{}, errors.New("unexpected redis rate limit reply")
	}
	count, ok := values[0].(int64)
	if !ok {
		return domain.RateLimitDecision{}, errors.New("invalid redis counter reply")
	}
	ttl, _ := values[1].(int64)
	reset := now
	if ttl > 0 {
		reset = now.Add(time.Duration(ttl) * time.Millisecond)
	}
	return domain.RateLimitDecision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: max(limit-int(count), 0),
		ResetAt:   reset,
	}, nil
}

// New picks Redis when REDIS_ADDR is set, otherwise the in-memory limiter.
func New(cfg config.Config) (domain.RateLimiter, error) {
	if cfg.RedisAddr != "" {
		return NewRedisLimiter(cfg)
	}
	return NewMemoryLimiter(MemoryLimiterConfig{MaxKeys: cfg.RateLimitMaxKeys}), nil
}
