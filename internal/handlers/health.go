package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nodeplane/nodeplane/internal/models"
)

// Version is injected by the composition root at startup
var Version = "1.0.0"

// Health handles health check requests. It reports store
// availability, background worker liveness, and the active deployment
// count; degraded when any of them is off.
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()

	storeStatus := "healthy"
	if err := h.store.Ping(ctx); err != nil {
		storeStatus = "unhealthy"
	}

	workers := models.WorkerStatus{}
	if h.lifecycleAlive != nil {
		workers.Lifecycle = h.lifecycleAlive()
	}
	if h.telemetryAlive != nil {
		workers.Telemetry = h.telemetryAlive()
	}

	deployments, err := h.deploymentService.Count(ctx)
	if err != nil {
		storeStatus = "unhealthy"
	}

	status := "healthy"
	if storeStatus != "healthy" || !workers.Lifecycle || !workers.Telemetry {
		status = "degraded"
	}

	return c.JSON(models.HealthResponse{
		Status:            status,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		Store:             storeStatus,
		Workers:           workers,
		ActiveDeployments: deployments,
		Version:           Version,
	})
}

// NotFound handles 404 errors
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "Route not found",
			Path:    c.Path(),
		},
	})
}
