package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/spot-form-api/internal/dto"
	"github.com/noah-isme/spot-form-api/internal/service"
	"github.com/noah-isme/spot-form-api/internal/utils"
)

// SessionHandler exposes the signed-in user and logout.
type SessionHandler struct {
	sessions service.FormSessionService
	loginURL string
	logger   zerolog.Logger
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(sessions service.FormSessionService, loginURL string, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		loginURL: loginURL,
		logger:   logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register wires session routes.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Get("", h.current)
	router.Post("/logout", h.logout)
}

func (h *SessionHandler) current(c *fiber.Ctx) error {
	identity, ok, resp := requireIdentity(c)
	if !ok {
		return resp
	}
	return utils.SendSuccess(c, "session retrieved", dto.NewSessionResponse(identity))
}

// logout drops every piece of per-user state. Cache failures are logged and
// do not block the redirect.
func (h *SessionHandler) logout(c *fiber.Ctx) error {
	identity, ok, resp := requireIdentity(c)
	if !ok {
		return resp
	}

	if err := h.sessions.Logout(requestContext(c), identity); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Str("user_id", identity.ID).Msg("logout cleanup incomplete")
	}

	return utils.SendSuccess(c, "logged out", dto.LogoutResponse{Redirect: h.loginURL})
}
