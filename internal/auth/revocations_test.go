package auth

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRevocations(t *testing.T) (*Revocations, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return NewRevocations(client), server
}

func TestRevocationHonorsGracePeriod(t *testing.T) {
	rev, _ := newTestRevocations(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rev.now = func() time.Time { return now }

	if err := rev.Revoke(ctx, "tok-1", 10*time.Second, now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := rev.IsRevoked(ctx, "tok-1")
	if err != nil || revoked {
		t.Fatalf("expected token usable during grace, got %v %v", revoked, err)
	}

	rev.now = func() time.Time { return now.Add(11 * time.Second) }
	revoked, err = rev.IsRevoked(ctx, "tok-1")
	if err != nil || !revoked {
		t.Fatalf("expected token revoked after grace, got %v %v", revoked, err)
	}
}

func TestRevocationKeyExpiresWithToken(t *testing.T) {
	rev, server := newTestRevocations(t)
	ctx := context.Background()

	if err := rev.Revoke(ctx, "tok-2", 0, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ttl := server.TTL("revoked:tok-2"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}
	server.FastForward(2 * time.Minute)
	revoked, err := rev.IsRevoked(ctx, "tok-2")
	if err != nil || revoked {
		t.Fatalf("expected expired key to read as not revoked, got %v %v", revoked, err)
	}
}

func TestRevokeSkipsExpiredTokens(t *testing.T) {
	rev, server := newTestRevocations(t)
	if err := rev.Revoke(context.Background(), "tok-3", 0, time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if server.Exists("revoked:tok-3") {
		t.Fatalf("expected no key for an already expired token")
	}
}

func TestNilRevocationsIsNoop(t *testing.T) {
	var rev *Revocations
	if err := rev.Revoke(context.Background(), "x", 0, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("nil revoke: %v", err)
	}
	if revoked, err := rev.IsRevoked(context.Background(), "x"); err != nil || revoked {
		t.Fatalf("nil revocations should never report revoked")
	}
}
