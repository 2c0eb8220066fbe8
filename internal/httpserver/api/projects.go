package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/billing_api/internal/httpserver/httputil"
	"github.com/ncecere/billing_api/internal/models"
	"github.com/ncecere/billing_api/internal/services/session"
)

func (h *handler) listProjects(c *fiber.Ctx) error {
	rc, ok := callerFromContext(c)
	if !ok {
		return httputil.Authentication("authentication required")
	}
	projects, err := h.sessions.ListProjects(userContext(c), session.Identity{
		UserID:   rc.UserID,
		Username: rc.Username,
		TokenID:  rc.TokenID,
	})
	if err != nil {
		return err
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return c.JSON(projects)
}
