package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations records rotated-out token ids in redis. A revoked id stays
// usable until its grace deadline so in-flight requests that still carry
// the previous token are not rejected.
type Revocations struct {
	client *redis.Client
	now    func() time.Time
}

func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client, now: time.Now}
}

// Revoke schedules tokenID to stop validating after grace. The key expires
// together with the token itself.
func (r *Revocations) Revoke(ctx context.Context, tokenID string, grace time.Duration, expiresAt time.Time) error {
	if r == nil || r.client == nil || tokenID == "" {
		return nil
	}
	now := r.now()
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}
	if grace < 0 {
		grace = 0
	}
	effective := now.Add(grace).UnixNano()
	if err := r.client.Set(ctx, r.key(tokenID), strconv.FormatInt(effective, 10), ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r == nil || r.client == nil || tokenID == "" {
		return false, nil
	}
	raw, err := r.client.Get(ctx, r.key(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("check revocation: %w", err)
	}
	effective, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return true, nil
	}
	return !r.now().Before(time.Unix(0, effective)), nil
}

func (r *Revocations) key(tokenID string) string {
	return "revoked:" + tokenID
}
