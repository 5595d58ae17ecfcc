package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/spot-form-api/internal/config"
	"github.com/noah-isme/spot-form-api/internal/handler"
	"github.com/noah-isme/spot-form-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	FormHandler       *handler.FormHandler
	SubmissionHandler *handler.SubmissionHandler
	SessionHandler    *handler.SessionHandler
	Health            handler.HealthOptions
	JWTMiddleware     fiber.Handler
	Metrics           bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if deps.Metrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Health))
	api.Get("/help", handler.Help())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Submission wizard
	if deps.FormHandler != nil {
		deps.FormHandler.Register(api.Group("/form", jwtMiddleware))
	}

	// Submission list, review dialog and audit log
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(api.Group("/submissions", jwtMiddleware))
	}

	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(api.Group("/session", jwtMiddleware))
	}
}
