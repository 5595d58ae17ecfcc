package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/spot-form-api/internal/config"
	"github.com/noah-isme/spot-form-api/internal/dto"
	"github.com/noah-isme/spot-form-api/internal/handler"
	"github.com/noah-isme/spot-form-api/internal/models"
	"github.com/noah-isme/spot-form-api/internal/places"
	"github.com/noah-isme/spot-form-api/internal/service"
)

func TestSessionHandlerCurrentAndLogout(t *testing.T) {
	logger := zerolog.Nop()
	backend := newPlacesBackend(t)
	client, err := places.New(places.Config{BaseURL: backend.server.URL, Timeout: time.Second}, logger)
	require.NoError(t, err)
	sessions := service.NewFormSessionService(service.FormSessionConfig{Places: client}, logger)
	t.Cleanup(sessions.Shutdown)

	app := fiber.New()
	group := app.Group("/api/v1/session", withIdentity(janeIdentity))
	handler.NewSessionHandler(sessions, "/login", logger).Register(group)

	resp, env := doJSON(t, app, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var session dto.SessionResponse
	decodeData(t, env.Data, &session)
	require.Equal(t, "7", session.ID)
	require.Equal(t, "Jane Doe", session.DisplayName)

	_, err = sessions.Controller(janeIdentity)
	require.NoError(t, err)
	require.Equal(t, 1, sessions.Active())

	resp, env = doJSON(t, app, http.MethodPost, "/api/v1/session/logout", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var logout dto.LogoutResponse
	decodeData(t, env.Data, &logout)
	require.Equal(t, "/login", logout.Redirect)
	require.Zero(t, sessions.Active())
}

func TestSessionHandlerRequiresIdentity(t *testing.T) {
	logger := zerolog.Nop()
	sessions := service.NewFormSessionService(service.FormSessionConfig{}, logger)

	app := fiber.New()
	group := app.Group("/api/v1/session", withIdentity(models.Identity{}))
	handler.NewSessionHandler(sessions, "/login", logger).Register(group)

	resp, env := doJSON(t, app, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.False(t, env.Success)
}

func TestHelpHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/api/v1/help", handler.Help())

	resp, env := doJSON(t, app, http.MethodGet, "/api/v1/help", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var help dto.HelpResponse
	decodeData(t, env.Data, &help)
	require.Equal(t, "Help & Instructions", help.Title)
	require.NotEmpty(t, help.Sections)
	require.Equal(t, models.Provinces, help.Provinces)
}

func TestHealthHandler(t *testing.T) {
	cfg := config.Config{AppName: "spot-form-api", AppEnv: "test"}

	app := fiber.New()
	app.Get("/ok", handler.HealthCheck(cfg, handler.HealthOptions{
		ActiveSessions: func() int { return 3 },
		Probes: map[string]handler.HealthProbe{
			"database": func(context.Context) error { return nil },
		},
	}))
	app.Get("/degraded", handler.HealthCheck(cfg, handler.HealthOptions{
		Probes: map[string]handler.HealthProbe{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		},
	}))

	resp, env := doJSON(t, app, http.MethodGet, "/ok", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var health handler.HealthResponse
	decodeData(t, env.Data, &health)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, 3, health.FormSessions)
	require.Equal(t, "up", health.Dependencies["database"])

	resp, env = doJSON(t, app, http.MethodGet, "/degraded", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "service degraded", env.Message)
	health = handler.HealthResponse{}
	decodeData(t, env.Data, &health)
	require.Equal(t, "degraded", health.Status)
	require.Equal(t, "down", health.Dependencies["redis"])
}
