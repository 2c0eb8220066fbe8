package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/billing_api/internal/requestctx"
)

func userContext(c *fiber.Ctx) context.Context {
	if c == nil {
		return context.Background()
	}
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}

func attachRequestContext(c *fiber.Ctx, rc *requestctx.Context) {
	c.SetUserContext(requestctx.WithContext(userContext(c), rc))
	c.Locals(requestctx.FiberLocalsKey(), rc)
}

func callerFromContext(c *fiber.Ctx) (*requestctx.Context, bool) {
	if rc, ok := c.Locals(requestctx.FiberLocalsKey()).(*requestctx.Context); ok && rc != nil {
		return rc, true
	}
	return requestctx.FromContext(userContext(c))
}
