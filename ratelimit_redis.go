package aidetect

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter, starts the window on the first
// hit and returns {count, remaining window in ms}.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter is a fixed-window limiter whose counters live in Redis, so
// several processes share one ceiling. The window starts at an identifier's
// first request and ends when its key expires.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
	opts   RateLimitOpts
}

// NewRedisLimiter returns a limiter backed by client. Keys are namespaced with prefix.
func NewRedisLimiter(client redis.Scripter, prefix string, opts RateLimitOpts) *RedisLimiter {
	opts.defaults()
	if prefix == "" {
		prefix = "aidetect:rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, opts: opts}
}

// Check counts one request for identifier.
func (l *RedisLimiter) Check(ctx context.Context, identifier string) (RateDecision, error) {
	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + identifier}, l.opts.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return RateDecision{}, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(res) != 2 { //nolint:mnd // script returns a pair
		return RateDecision{}, fmt.Errorf("redis rate limit: unexpected reply %v", res)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond

	d := RateDecision{Allowed: true, Limit: l.opts.Max, Used: count}
	if count > l.opts.Max {
		d.Allowed = false
		d.RetryAfterSeconds = retryAfterSeconds(ttl)
	}
	return d, nil
}
