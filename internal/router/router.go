package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nodeplane/nodeplane/internal/bus"
	"github.com/nodeplane/nodeplane/internal/config"
	"github.com/nodeplane/nodeplane/internal/handlers"
	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/middleware"
	"github.com/nodeplane/nodeplane/internal/store"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, st store.Store, publisher bus.Publisher,
	cfg config.Config, lifecycleAlive, telemetryAlive handlers.AliveFunc,
) *handlers.Handler {
	h := handlers.New(logger, st, publisher, cfg.Analytics, lifecycleAlive, telemetryAlive)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)

	// API v1 routes (protected by API key when auth is enabled)
	v1 := app.Group("/v1", authMiddleware)

	// Deployment management
	v1.Post("/deployments", h.CreateDeployment)
	v1.Get("/deployments", h.ListDeployments)
	v1.Get("/deployments/:uid", h.GetDeployment)
	v1.Delete("/deployments/:uid", h.DeleteDeployment)

	// Nodes, telemetry, audit events
	v1.Get("/deployments/:uid/nodes", h.GetDeploymentNodes)
	v1.Get("/deployments/:uid/telemetry", h.GetDeploymentTelemetry)
	v1.Get("/deployments/:uid/events", h.GetDeploymentEvents)

	// Bottleneck analysis
	v1.Get("/deployments/:uid/bottlenecks", h.GetDeploymentBottlenecks)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, st store.Store, publisher bus.Publisher,
	cfg config.Config, lifecycleAlive, telemetryAlive handlers.AliveFunc,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Nodeplane Orchestrator",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, st, publisher, cfg, lifecycleAlive, telemetryAlive)
	return app
}
