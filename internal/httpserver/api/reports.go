package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/billing_api/internal/httpserver/httputil"
	"github.com/ncecere/billing_api/internal/services/report"
)

func (h *handler) generateReport(c *fiber.Ctx) error {
	rc, ok := callerFromContext(c)
	if !ok {
		return httputil.Authentication("authentication required")
	}

	requestedUser, err := report.ParseUser(c.Query("user"))
	if err != nil {
		return httputil.BadRequest("user must be a numeric user id")
	}

	result, err := h.reports.Generate(userContext(c), report.Request{
		Caller:        rc.UserID,
		RequestedUser: requestedUser,
		Projects:      report.ParseProjects(c.Query("projects")),
		Bucket:        c.Query("bucket"),
		FromDate:      c.Query("fromDate"),
		ToDate:        c.Query("toDate"),
	})
	if err != nil {
		if errors.Is(err, report.ErrInvalidDate) {
			return httputil.BadRequest("please define fromDate and toDate in the format YYYY-MM-DD")
		}
		return err
	}
	return c.JSON(result)
}
