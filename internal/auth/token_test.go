package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager("test-secret", time.Hour, "billing-test")
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	return tm
}

func TestTokenRoundTrip(t *testing.T) {
	tm := newTestManager(t)
	token, issued, err := tm.Issue(42, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.TokenID != issued.TokenID || claims.TokenID == "" {
		t.Fatalf("token id mismatch: %q vs %q", claims.TokenID, issued.TokenID)
	}
	if claims.ExpiresAt.Unix() != issued.ExpiresAt.Unix() {
		t.Fatalf("expiry mismatch")
	}
}

func TestTokenIDsAreUnique(t *testing.T) {
	tm := newTestManager(t)
	_, a, _ := tm.Issue(1, "a")
	_, b, _ := tm.Issue(1, "a")
	if a.TokenID == b.TokenID {
		t.Fatalf("expected distinct token ids")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tm := newTestManager(t)
	issuedAt := time.Now().Add(-2 * time.Hour)
	tm.now = func() time.Time { return issuedAt }
	token, _, err := tm.Issue(1, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	tm.now = time.Now
	if _, err := tm.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsForeignSecretAndIssuer(t *testing.T) {
	tm := newTestManager(t)
	other, _ := NewTokenManager("other-secret", time.Hour, "billing-test")
	token, _, _ := other.Issue(1, "alice")
	if _, err := tm.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature failure, got %v", err)
	}

	otherIssuer, _ := NewTokenManager("test-secret", time.Hour, "someone-else")
	token, _, _ = otherIssuer.Issue(1, "alice")
	if _, err := tm.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected issuer failure, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	tm := newTestManager(t)
	if _, err := tm.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewTokenManagerValidation(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour, "x"); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewTokenManager("s", 0, "x"); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
