package limits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLimitExceeded = errors.New("rate limit exceeded")

// LimitConfig bounds attempts per fixed window. Zero attempts disables the
// limit.
type LimitConfig struct {
	Attempts int
	Window   time.Duration
}

type RateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// LoginKey scopes login attempts to a username.
func LoginKey(username string) string {
	return "login:" + strings.ToLower(strings.TrimSpace(username))
}

func (l *RateLimiter) Allow(ctx context.Context, key string, cfg LimitConfig) error {
	if l == nil || l.client == nil || cfg.Attempts <= 0 {
		return nil
	}
	window := windowOf(cfg)
	redisKey := l.windowKey(key, window)

	cnt, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return err
	}
	if cnt == 1 {
		l.client.Expire(ctx, redisKey, window)
	}
	if int(cnt) > cfg.Attempts {
		return ErrLimitExceeded
	}
	return nil
}

// Reset clears the current window, e.g. after a successful login.
func (l *RateLimiter) Reset(ctx context.Context, key string, cfg LimitConfig) {
	if l == nil || l.client == nil || cfg.Attempts <= 0 {
		return
	}
	l.client.Del(ctx, l.windowKey(key, windowOf(cfg)))
}

func (l *RateLimiter) windowKey(key string, window time.Duration) string {
	slot := l.now().UTC().Unix() / int64(window.Seconds())
	return fmt.Sprintf("%s:%d", key, slot)
}

func windowOf(cfg LimitConfig) time.Duration {
	if cfg.Window < time.Second {
		return time.Minute
	}
	return cfg.Window
}
