package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

const (
	keyPrefix = "ratelimit"
	timeout   = 250 * time.Millisecond
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter is a fixed window limiter shared by every API instance.
// It fails open when redis is unreachable.
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
	logger core.Logger
}

var _ core.RateLimiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client *redis.Client, logger core.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
		logger: logger,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{keyPrefix + ":" + key}, ttl, limit).Int64()
	if err != nil {
		l.logger.Warn("rate limiter unavailable", err)
		return true
	}
	return allowed == 1
}
