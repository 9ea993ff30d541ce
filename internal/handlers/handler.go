package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/nodeplane/nodeplane/internal/analytics"
	"github.com/nodeplane/nodeplane/internal/bus"
	"github.com/nodeplane/nodeplane/internal/config"
	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/models"
	"github.com/nodeplane/nodeplane/internal/services"
	"github.com/nodeplane/nodeplane/internal/store"
)

// AliveFunc reports whether a background worker's loop is running
type AliveFunc func() bool

var validate = validator.New()

// Handler contains all HTTP handlers
type Handler struct {
	logger       *logging.Logger
	store        store.Store
	analyticsCfg config.AnalyticsConfig

	// Services
	deploymentService *services.DeploymentService
	nodeService       *services.NodeService
	telemetryService  *services.TelemetryService
	detector          *analytics.Detector

	// Health hooks into the background workers
	lifecycleAlive AliveFunc
	telemetryAlive AliveFunc
}

// New creates a new handler instance. The alive funcs may be nil when
// no workers are attached (tests, tooling).
func New(logger *logging.Logger, st store.Store, publisher bus.Publisher,
	analyticsCfg config.AnalyticsConfig,
	lifecycleAlive, telemetryAlive AliveFunc,
) *Handler {
	return &Handler{
		logger:            logger,
		store:             st,
		analyticsCfg:      analyticsCfg,
		deploymentService: services.NewDeploymentService(logger, st, publisher),
		nodeService:       services.NewNodeService(logger, st),
		telemetryService:  services.NewTelemetryService(logger, st),
		detector:          analytics.NewDetector(st, logger),
		lifecycleAlive:    lifecycleAlive,
		telemetryAlive:    telemetryAlive,
	}
}

// fail maps service and store errors onto HTTP error responses
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    services.CodeNotFound,
				Message: "Deployment not found",
				Path:    c.Path(),
			},
		})
	}

	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		status := fiber.StatusInternalServerError
		switch svcErr.Code {
		case services.CodeNotFound:
			status = fiber.StatusNotFound
		case services.CodeInvalid:
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{Code: svcErr.Code, Message: svcErr.Message},
		})
	}

	h.logger.Error("Request handling failed",
		"path", c.Path(),
		"request_id", logging.RequestIDFromContext(c.UserContext()),
		"error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{Code: services.CodeInternal, Message: "Internal Server Error"},
	})
}
