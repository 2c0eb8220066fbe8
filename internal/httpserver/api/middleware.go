package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/billing_api/internal/httpserver/httputil"
	"github.com/ncecere/billing_api/internal/requestctx"
	"github.com/ncecere/billing_api/internal/services/session"
)

const bearerPrefix = "bearer "

// authMiddleware validates the bearer token, rotates it, and exposes the
// replacement in the Authorization response header.
func authMiddleware(sessions Sessions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return httputil.Authentication("authentication required: token not provided")
		}
		token := extractBearer(raw)
		if token == "" {
			return httputil.Authentication("cannot parse authorization token")
		}

		ctx := userContext(c)
		identity, err := sessions.ValidateToken(ctx, token)
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) {
				return httputil.Authentication("invalid or expired token")
			}
			return err
		}
		renewal, err := sessions.RenewToken(ctx, identity)
		if err != nil {
			return err
		}

		attachRequestContext(c, &requestctx.Context{
			UserID:         renewal.UserID,
			Username:       identity.Username,
			TokenID:        identity.TokenID,
			Token:          renewal.Token,
			TokenExpiresAt: renewal.ExpiresAt,
		})
		c.Set(fiber.HeaderAuthorization, renewal.Token)
		return c.Next()
	}
}

func extractBearer(raw string) string {
	if !strings.HasPrefix(strings.ToLower(raw), bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(raw[len(bearerPrefix):])
}
