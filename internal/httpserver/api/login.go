package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/billing_api/internal/httpserver/httputil"
	"github.com/ncecere/billing_api/internal/limits"
	"github.com/ncecere/billing_api/internal/services/session"
)

const missingCredentials = "please provide username and password in the body of your request"

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *handler) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.BadRequest(missingCredentials)
	}
	if err := h.validate.Struct(req); err != nil {
		return httputil.BadRequest(missingCredentials)
	}

	ctx := userContext(c)
	key := limits.LoginKey(req.Username)
	if h.limiter != nil {
		if err := h.limiter.Allow(ctx, key, h.loginLimit); err != nil {
			if errors.Is(err, limits.ErrLimitExceeded) {
				h.recordLogin("throttled")
				return httputil.TooManyRequests("too many login attempts, try again later")
			}
			slog.Warn("login limiter unavailable", slog.String("error", err.Error()))
		}
	}

	token, identity, err := h.sessions.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			h.recordLogin("rejected")
			return httputil.Authentication("invalid username or password")
		}
		h.recordLogin("error")
		return err
	}
	h.recordLogin("success")

	if h.limiter != nil {
		h.limiter.Reset(ctx, key, h.loginLimit)
	}
	if h.directory != nil {
		// A stale directory only blanks usernames; the refresher logs failures.
		_ = h.directory.RefreshUserDirectory(ctx, "login")
	}

	c.Set(fiber.HeaderAuthorization, token)
	return c.Status(fiber.StatusOK).JSON(loginResponse{
		UserID:    identity.UserID,
		Username:  identity.Username,
		ExpiresAt: identity.ExpiresAt,
	})
}

func (h *handler) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(outcome)
	}
}
