package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/childcare-site/pkg/logging"
)

// allowScript applies one attempt atomically. The hash holds the window start
// (ws), attempt count (c) and blocked-until (bu), all in unix milliseconds.
// Returns {allowed, count, reset_ms}.
var allowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local block = tonumber(ARGV[3])
local max = tonumber(ARGV[4])

local ws = tonumber(redis.call('HGET', key, 'ws') or '0')
local c = tonumber(redis.call('HGET', key, 'c') or '0')
local bu = tonumber(redis.call('HGET', key, 'bu') or '0')

if bu > 0 then
  if now < bu then
    return {0, c, bu}
  end
  ws = 0
  c = 0
end

if ws == 0 or now >= ws + window then
  redis.call('DEL', key)
  redis.call('HSET', key, 'ws', ARGV[1], 'c', '1')
  redis.call('PEXPIRE', key, ARGV[2])
  return {1, 1, now + window}
end

c = c + 1
if c > max then
  bu = now + block
  redis.call('HSET', key, 'c', c, 'bu', bu)
  redis.call('PEXPIRE', key, ARGV[3])
  return {0, c, bu}
end

redis.call('HSET', key, 'c', c)
return {1, c, ws + window}
`)

// RedisLimiter shares rate-limit records across instances through Redis.
type RedisLimiter struct {
	client redis.Cmdable
	cfg    Config
	prefix string
	now    func() time.Time
	logger *logging.Logger
}

// RedisOption customizes a RedisLimiter.
type RedisOption func(*RedisLimiter)

// WithRedisClock overrides time.Now for the timestamps sent to Redis.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(l *RedisLimiter) { l.now = now }
}

// WithKeyPrefix namespaces keys, e.g. per form.
func WithKeyPrefix(prefix string) RedisOption {
	return func(l *RedisLimiter) { l.prefix = prefix }
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client redis.Cmdable, cfg Config, logger *logging.Logger, opts ...RedisOption) *RedisLimiter {
	if client == nil {
		panic("ratelimit: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	l := &RedisLimiter{
		client: client,
		cfg:    cfg.normalized(),
		prefix: "ratelimit:forms",
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow implements Limiter. Redis failures fail open, like empty identifiers.
func (l *RedisLimiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		l.logger.Warn("rate limit identifier missing, allowing request", "error", ErrEmptyIdentifier)
		return Decision{Allowed: true, Remaining: l.cfg.MaxAttempts, FailOpen: true}, nil
	}

	key := fmt.Sprintf("%s:%s", l.prefix, identifier)
	now := l.now()
	res, err := allowScript.Run(ctx, l.client, []string{key},
		now.UnixMilli(),
		l.cfg.Window.Milliseconds(),
		l.cfg.BlockDuration.Milliseconds(),
		l.cfg.MaxAttempts,
	).Int64Slice()
	if err != nil || len(res) != 3 {
		l.logger.Error("rate limit check failed, allowing request", "error", err, "key", key)
		return Decision{Allowed: true, Remaining: l.cfg.MaxAttempts, FailOpen: true}, nil
	}

	count := int(res[1])
	decision := Decision{
		Allowed: res[0] == 1,
		Count:   count,
		ResetAt: time.UnixMilli(res[2]),
	}
	if decision.Allowed {
		decision.Remaining = l.cfg.MaxAttempts - count
	} else {
		l.logger.Warn("rate limit exceeded", "identifier", identifier, "count", count, "reset_at", decision.ResetAt)
	}
	return decision, nil
}

