package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/spot-form-api/internal/config"
	"github.com/noah-isme/spot-form-api/internal/utils"
)

const healthCheckTimeout = 2 * time.Second

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	FormSessions int               `json:"form_sessions"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthProbe checks one dependency.
type HealthProbe func(ctx context.Context) error

// HealthOptions carries the optional runtime data reported by the health endpoint.
type HealthOptions struct {
	ActiveSessions func() int
	Probes         map[string]HealthProbe
}

// HealthCheck returns a handler that reports application health information.
// A failing probe marks the service degraded but still answers 200 so the
// form keeps being served without its cache or audit log.
func HealthCheck(cfg config.Config, opts HealthOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}
		if opts.ActiveSessions != nil {
			payload.FormSessions = opts.ActiveSessions()
		}

		if len(opts.Probes) > 0 {
			ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
			defer cancel()

			payload.Dependencies = make(map[string]string, len(opts.Probes))
			for name, probe := range opts.Probes {
				if err := probe(ctx); err != nil {
					payload.Dependencies[name] = "down"
					payload.Status = "degraded"
					continue
				}
				payload.Dependencies[name] = "up"
			}
		}

		return utils.SendSuccess(c, "service "+payload.Status, payload)
	}
}
