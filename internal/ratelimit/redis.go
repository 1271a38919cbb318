package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingLog trims the sorted set to the window, then records the hit only if there is
// room. Scores and the window are in milliseconds. Returns {allowed, count, oldest}.
var slidingLog = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max    = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)
local allowed = 0
if count < max then
  redis.call('ZADD', key, now, member)
  redis.call('PEXPIRE', key, window)
  count = count + 1
  allowed = 1
end

local oldest = now
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if first[2] then
  oldest = tonumber(first[2])
end

return {allowed, count, oldest}
`)

// RedisStore keeps the sliding log in a Redis sorted set per key, so several server
// processes can share one budget per client.
type RedisStore struct {
    client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// RedisConfig holds connection settings for NewRedisStore.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
    if cfg.Addr == "" {
        return nil, errors.New("ratelimit: redis address is required")
    }

    client := redis.NewClient(&redis.Options{
        Addr:     cfg.Addr,
        Password: cfg.Password,
        DB:       cfg.DB,
    })

    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("ratelimit: redis ping failed: %w", err)
    }

    return &RedisStore{client: client}, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
    return s.client.Close()
}

// Take implements Store.
func (s *RedisStore) Take(ctx context.Context, key string, max int, window time.Duration, now time.Time) (Result, error) {
    nowMs := now.UnixMilli()
    windowMs := window.Milliseconds()

    vals, err := slidingLog.Run(ctx, s.client, []string{key}, nowMs, windowMs, max, uuid.NewString()).Int64Slice()
    if err != nil {
        return Result{}, err
    }
    if len(vals) != 3 {
        return Result{}, fmt.Errorf("ratelimit: unexpected script reply %v", vals)
    }

    res := Result{
        Allowed: vals[0] == 1,
        Count:   int(vals[1]),
        ResetAt: time.UnixMilli(vals[2]).Add(window),
    }
    if res.Allowed {
        res.Remaining = max - res.Count
    }

    return res, nil
}
