package redislimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/service"
)

// Config holds Redis limiter configuration.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces counter keys (default: "tenantgate:rl:").
	Prefix string

	Limit  int
	Window time.Duration
}

// Limiter implements service.Limiter on a Redis counter per client key.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

var _ service.Limiter = (*Limiter)(nil)

// INCR opens the window on the first hit; the TTL bounds it.
var allowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// New creates a Limiter. It does not contact Redis; use Ping to check
// connectivity.
func New(cfg Config) (*Limiter, error) {
	if cfg.Addr == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("redis addr is required")
	}
	if cfg.Limit <= 0 || cfg.Window < time.Millisecond {
		return nil, domain.ErrInvalidArgument.WithDetails("rate limit and window must be positive")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "tenantgate:rl:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Limiter{
		client: client,
		prefix: cfg.Prefix,
		limit:  cfg.Limit,
		window: cfg.Window,
	}, nil
}

// Allow increments the counter for key. A Redis failure is returned as an
// error; the caller decides whether to fail open.
func (l *Limiter) Allow(ctx context.Context, key string) (service.RateDecision, error) {
	result, err := allowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return service.RateDecision{}, fmt.Errorf("redis rate limit: %w", err)
	}

	values, ok := result.([]any)
	if !ok || len(values) < 2 {
		return service.RateDecision{}, errors.New("unexpected redis rate limit response")
	}
	current, ok := values[0].(int64)
	if !ok {
		return service.RateDecision{}, errors.New("invalid redis counter response")
	}
	ttlMillis, _ := values[1].(int64)

	d := service.RateDecision{
		Allowed: current <= int64(l.limit),
		Count:   current,
		Limit:   l.limit,
	}
	if !d.Allowed {
		d.RetryAfter = time.Duration(ttlMillis) * time.Millisecond
	}
	return d, nil
}

// Ping checks that Redis is reachable.
func (l *Limiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (l *Limiter) Close() error {
	return l.client.Close()
}
