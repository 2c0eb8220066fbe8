package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity carried by a session token.
type Claims struct {
	UserID    int64
	Username  string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration, issuer string) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be > 0")
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue signs a new session token for the user.
func (tm *TokenManager) Issue(userID int64, username string) (string, Claims, error) {
	now := tm.now()
	claims := Claims{
		UserID:    userID,
		Username:  username,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(tm.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"name": username,
		"iat":  now.Unix(),
		"exp":  claims.ExpiresAt.Unix(),
		"iss":  tm.issuer,
		"typ":  "session",
		"jti":  claims.TokenID,
	})
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, issuer and expiry. Every failure is reported as
// ErrInvalidToken.
func (tm *TokenManager) Parse(token string) (Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if mc["typ"] != "session" {
		return Claims{}, fmt.Errorf("%w: unexpected token type", ErrInvalidToken)
	}

	subject, _ := mc["sub"].(string)
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: invalid subject", ErrInvalidToken)
	}
	tokenID, _ := mc["jti"].(string)
	if tokenID == "" {
		return Claims{}, fmt.Errorf("%w: missing token id", ErrInvalidToken)
	}
	username, _ := mc["name"].(string)

	claims := Claims{UserID: userID, Username: username, TokenID: tokenID}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
