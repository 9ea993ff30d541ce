package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nodeplane/nodeplane/internal/models"
	"github.com/nodeplane/nodeplane/internal/services"
)

// GetDeploymentTelemetry handles GET /v1/deployments/:uid/telemetry
// with optional node_uid, start, end, and limit filters
func (h *Handler) GetDeploymentTelemetry(c *fiber.Ctx) error {
	var query models.TelemetryQuery
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

	samples, err := h.telemetryService.List(c.UserContext(), c.Params("uid"), query)
	if err != nil {
		return h.fail(c, err)
	}

	resp := models.TelemetryListResponse{
		Samples: make([]models.TelemetrySampleResponse, len(samples)),
		Total:   len(samples),
	}
	for i, s := range samples {
		resp.Samples[i] = models.TelemetrySampleResponse{
			UID:            s.UID,
			NodeUID:        s.NodeUID,
			Timestamp:      s.Timestamp.Format(time.RFC3339Nano),
			LatencyMS:      s.LatencyMS,
			ThroughputGbps: s.ThroughputGbps,
			ErrorRate:      s.ErrorRate,
		}
	}
	return c.JSON(resp)
}
