package limits

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (*RateLimiter, func()) {
	t.Helper()
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	limiter := NewRateLimiter(client)
	cleanup := func() {
		client.Close()
		server.Close()
	}
	return limiter, cleanup
}

func TestRateLimiterAllowEnforcesAttempts(t *testing.T) {
	limiter, cleanup := newTestLimiter(t)
	defer cleanup()

	ctx := context.Background()
	cfg := LimitConfig{Attempts: 2, Window: time.Minute}
	key := LoginKey("alice")

	if err := limiter.Allow(ctx, key, cfg); err != nil {
		t.Fatalf("first attempt should pass: %v", err)
	}
	if err := limiter.Allow(ctx, key, cfg); err != nil {
		t.Fatalf("second attempt should pass: %v", err)
	}
	if err := limiter.Allow(ctx, key, cfg); err != ErrLimitExceeded {
		t.Fatalf("expected limit error, got %v", err)
	}
	if err := limiter.Allow(ctx, LoginKey("bob"), cfg); err != nil {
		t.Fatalf("other usernames should not share the window: %v", err)
	}
}

func TestRateLimiterResetClearsWindow(t *testing.T) {
	limiter, cleanup := newTestLimiter(t)
	defer cleanup()

	ctx := context.Background()
	cfg := LimitConfig{Attempts: 1, Window: time.Minute}
	key := LoginKey("Alice ")

	if err := limiter.Allow(ctx, key, cfg); err != nil {
		t.Fatalf("first attempt should pass: %v", err)
	}
	limiter.Reset(ctx, key, cfg)
	if err := limiter.Allow(ctx, key, cfg); err != nil {
		t.Fatalf("attempt after reset should pass: %v", err)
	}
}

func TestRateLimiterWindowRollsOver(t *testing.T) {
	limiter, cleanup := newTestLimiter(t)
	defer cleanup()

	ctx := context.Background()
	cfg := LimitConfig{Attempts: 1, Window: time.Minute}
	start := time.Date(2024, 1, 1, 12, 0, 5, 0, time.UTC)
	limiter.now = func() time.Time { return start }

	if err := limiter.Allow(ctx, "k", cfg); err != nil {
		t.Fatalf("first attempt should pass: %v", err)
	}
	if err := limiter.Allow(ctx, "k", cfg); err != ErrLimitExceeded {
		t.Fatalf("expected limit error, got %v", err)
	}
	limiter.now = func() time.Time { return start.Add(time.Minute) }
	if err := limiter.Allow(ctx, "k", cfg); err != nil {
		t.Fatalf("next window should pass: %v", err)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	var limiter *RateLimiter
	if err := limiter.Allow(context.Background(), "k", LimitConfig{Attempts: 1}); err != nil {
		t.Fatalf("nil limiter should allow: %v", err)
	}

	live, cleanup := newTestLimiter(t)
	defer cleanup()
	for i := 0; i < 5; i++ {
		if err := live.Allow(context.Background(), "k", LimitConfig{}); err != nil {
			t.Fatalf("zero attempts should disable the limit: %v", err)
		}
	}
}

func TestLoginKeyNormalizesUsername(t *testing.T) {
	if LoginKey(" Alice ") != "login:alice" {
		t.Fatalf("unexpected key %q", LoginKey(" Alice "))
	}
}
