package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nodeplane/nodeplane/internal/models"
	"github.com/nodeplane/nodeplane/internal/services"
)

// GetDeploymentBottlenecks handles GET /v1/deployments/:uid/bottlenecks.
// window_minutes and threshold fall back to the configured analytics
// defaults when omitted.
func (h *Handler) GetDeploymentBottlenecks(c *fiber.Ctx) error {
	var query models.BottleneckQuery
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    services.CodeInvalid,
				Message: "Failed to parse query parameters: " + err.Error(),
			},
		})
	}
	if err := validate.Struct(query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    services.CodeInvalid,
				Message: err.Error(),
			},
		})
	}

	windowMinutes := query.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = h.analyticsCfg.WindowMinutes
	}
	threshold := query.Threshold
	if threshold <= 0 {
		threshold = h.analyticsCfg.DeviationThreshold
	}

	result, err := h.detector.Detect(
		c.UserContext(),
		c.Params("uid"),
		time.Duration(windowMinutes)*time.Minute,
		threshold,
	)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}
