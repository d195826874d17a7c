package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/pkg/cmap"
)

// Limiter decides whether one more request from a client key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}

// RateDecision is the result of one Allow call.
type RateDecision struct {
	Allowed bool
	// Count is the number of requests seen in the current window,
	// including this one.
	Count int64
	Limit int
	// RetryAfter is the time left in the current window. Set on rejection.
	RetryAfter time.Duration
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, at least 1.
func (d RateDecision) RetryAfterSeconds() int {
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// RateLimitConfig holds configuration for RateLimiter.
type RateLimitConfig struct {
	// Limit is the number of requests allowed per key per window.
	Limit int

	// Window is the fixed window length.
	Window time.Duration

	// SweepInterval is how often expired entries are evicted
	// (default: Window).
	SweepInterval time.Duration

	// Shards is the shard count of the entry map (default: cmap.DefaultShardCount).
	Shards int
}

// DefaultRateLimitConfig returns 60 requests per minute.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:         60,
		Window:        time.Minute,
		SweepInterval: time.Minute,
	}
}

// windowState is immutable once published; updates swap the pointer.
type windowState struct {
	start time.Time
	count int64
}

type rateEntry struct {
	state atomic.Pointer[windowState]
}

func newRateEntry() *rateEntry {
	return new(rateEntry)
}

// RateLimiter is an in-process fixed-window limiter keyed by client key.
// Each key moves through no entry, an active window counting up to Limit,
// and rejection until the window expires, after which the next request
// opens a new window with a count of one.
type RateLimiter struct {
	limit         int64
	window        time.Duration
	sweepInterval time.Duration

	entries *cmap.Map[string, *rateEntry]
	logger  *slog.Logger
	warn    rate.Sometimes
	onEvict func(n int)
	now     func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewRateLimiter creates a RateLimiter. Call Start to begin evicting
// expired entries and Stop on shutdown.
func NewRateLimiter(cfg RateLimitConfig, logger *slog.Logger) (*RateLimiter, error) {
	if cfg.Limit <= 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("rate limit must be positive")
	}
	if cfg.Window <= 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("rate limit window must be positive")
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = cfg.Window
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RateLimiter{
		limit:         int64(cfg.Limit),
		window:        cfg.Window,
		sweepInterval: cfg.SweepInterval,
		entries:       cmap.NewWithShards[string, *rateEntry](cfg.Shards),
		logger:        logger,
		warn:          rate.Sometimes{First: 1, Interval: 10 * time.Second},
		now:           time.Now,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}, nil
}

// OnEvict registers fn to be called with the number of entries each sweep
// removes. It must be called before Start.
func (l *RateLimiter) OnEvict(fn func(n int)) {
	l.onEvict = fn
}

// Allow counts one request for key and reports whether it is within the
// limit. The check and the increment are a single atomic step per key.
func (l *RateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	now := l.now()
	entry, _ := l.entries.GetOrCompute(key, newRateEntry)

	for {
		cur := entry.state.Load()

		if cur == nil || now.Sub(cur.start) >= l.window {
			if entry.state.CompareAndSwap(cur, &windowState{start: now, count: 1}) {
				return RateDecision{Allowed: true, Count: 1, Limit: int(l.limit)}, nil
			}
			continue
		}

		if cur.count >= l.limit {
			retry := cur.start.Add(l.window).Sub(now)
			l.warn.Do(func() {
				l.logger.WarnContext(ctx, "rate limit exceeded",
					"client", key, "limit", l.limit, "window", l.window.String())
			})
			return RateDecision{
				Allowed:    false,
				Count:      cur.count + 1,
				Limit:      int(l.limit),
				RetryAfter: retry,
			}, nil
		}

		next := &windowState{start: cur.start, count: cur.count + 1}
		if entry.state.CompareAndSwap(cur, next) {
			return RateDecision{Allowed: true, Count: next.count, Limit: int(l.limit)}, nil
		}
	}
}

// Sweep removes entries whose window has expired and returns how many it
// removed. A request racing with the sweep may lose its increment.
func (l *RateLimiter) Sweep() int {
	now := l.now()
	n := l.entries.RemoveIf(func(_ string, e *rateEntry) bool {
		s := e.state.Load()
		return s == nil || now.Sub(s.start) >= l.window
	})
	if n > 0 && l.onEvict != nil {
		l.onEvict(n)
	}
	return n
}

// Len returns the number of tracked client keys.
func (l *RateLimiter) Len() int {
	return l.entries.Count()
}

// Start launches the background sweeper. Calling Start more than once has
// no effect.
func (l *RateLimiter) Start() {
	l.startOnce.Do(func() {
		l.started.Store(true)
		go l.sweepLoop()
	})
}

// Stop halts the sweeper and waits for it to exit. It is safe to call
// Stop without Start and to call it more than once.
func (l *RateLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
	if l.started.Load() {
		<-l.doneCh
	}
}

func (l *RateLimiter) sweepLoop() {
	defer close(l.doneCh)

	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				l.logger.Debug("evicted expired rate limit entries", "count", n, "remaining", l.Len())
			}
		}
	}
}
