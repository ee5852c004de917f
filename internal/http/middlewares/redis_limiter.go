package middlewares

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixed window: the first hit creates the counter with its expiry
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RedisLimiter shares one fixed-window counter per key across all API
// instances.
type RedisLimiter struct {
	rdb    redis.Scripter
	limit  int64
	window time.Duration
	prefix string
}

func NewRedisLimiter(rdb redis.Scripter, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		limit:  int64(limit),
		window: window,
		prefix: "finledger:ratelimit:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := fixedWindow.Run(ctx, l.rdb, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, err
	}

	count, ttl := res[0], res[1]
	if count <= l.limit {
		return true, 0, nil
	}

	if ttl < 0 {
		ttl = l.window.Milliseconds()
	}
	return false, time.Duration(ttl) * time.Millisecond, nil
}
