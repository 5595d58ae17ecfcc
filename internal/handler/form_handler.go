package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/spot-form-api/internal/dto"
	"github.com/noah-isme/spot-form-api/internal/form"
	"github.com/noah-isme/spot-form-api/internal/middleware"
	"github.com/noah-isme/spot-form-api/internal/models"
	"github.com/noah-isme/spot-form-api/internal/service"
	"github.com/noah-isme/spot-form-api/internal/utils"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// FormHandler exposes the per-user form controller over HTTP and websocket.
type FormHandler struct {
	sessions      service.FormSessionService
	lists         service.SubmissionListService
	images        service.ImageService
	validator     *validator.Validate
	submitLimiter fiber.Handler
	logger        zerolog.Logger
}

// NewFormHandler constructs the form handler. submitLimiter may be nil.
func NewFormHandler(sessions service.FormSessionService, lists service.SubmissionListService, images service.ImageService, validate *validator.Validate, submitLimiter fiber.Handler, logger zerolog.Logger) *FormHandler {
	if submitLimiter == nil {
		submitLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &FormHandler{
		sessions:      sessions,
		lists:         lists,
		images:        images,
		validator:     validate,
		submitLimiter: submitLimiter,
		logger:        logger.With().Str("component", "form_handler").Logger(),
	}
}

// Register binds form routes under the provided router group.
func (h *FormHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.stream))

	router.Get("", h.state)
	router.Delete("", h.discard)
	router.Put("/fields/:field", h.setField)
	router.Post("/image", h.selectImage)
	router.Delete("/image", h.clearImage)
	router.Post("/next", h.next)
	router.Post("/prev", h.prev)
	router.Post("/submit", h.submitLimiter, h.submit)
	router.Post("/edit/:id", h.beginEdit)
	router.Delete("/edit", h.cancelEdit)
	router.Delete("/notification", h.dismissNotification)
}

func (h *FormHandler) controller(c *fiber.Ctx) (*form.Controller, models.Identity, error) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return nil, models.Identity{}, form.ErrNoIdentity
	}
	controller, err := h.sessions.Controller(identity)
	if err != nil {
		return nil, identity, err
	}
	return controller, identity, nil
}

func (h *FormHandler) state(c *fiber.Ctx) error {
	controller, _, err := h.controller(c)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "form state", controller.State())
}

func (h *FormHandler) discard(c *fiber.Ctx) error {
	identity, ok, resp := requireIdentity(c)
	if !ok {
		return resp
	}
	discarded := h.sessions.Discard(identity.ID)
	return utils.SendSuccess(c, "form discarded", fiber.Map{"discarded": discarded})
}

func (h *FormHandler) setField(c *fiber.Ctx) error {
	controller, _, err := h.controller(c)
	if err != nil {
		return h.handleError(c, err)
	}

	var req dto.FieldUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "value is required", nil)
	}

	if err := controller.SetField(strings.TrimSpace(c.Params("field")), *req.Value); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "field updated", controller.State())
}

func (h *FormHandler) selectImage(c *fiber.Ctx) error {
	controller, _, err := h.controller(c)
	if err != nil {
		return h.handleError(c, err)
	}

	file, err := c.FormFile(models.FieldImage)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "image_link file is required")
	}

	image, err := h.images.Read(requestContext(c), file)
	if err != nil {
		return h.handleError(c, err)
	}
	if err := controller.SelectImage(image); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "image selected", controller.State())
}

func (h *FormHandler) clearImage(c *fiber.Ctx) error {
	controller, _, err := h.controller(c)
	if err != nil {
		return h.handleError(c, err)
	}
	if err := controller.SelectImage(nil); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "image cleared", controller.State())
}

func (h *FormHandler) next(c *fiber.Ctx) error {
	controller, _, err := h.controller(c)
	if err != nil {
		return h.handleError(c, err)
	}
	controller.Next()
	return utils.SendSuccess(c, "section changed", controller.State())
}

func (h *FormHandler) prev(c *fiber.Ctx) error {
	controller, _, err := h.controller(c)
	if err != nil {
		return h.handleError(c, err)
	}
	controller.Prev()
	return utils.SendSuccess(c, "section changed", controller.State())
}

func (h *FormHandler) submit(c *fiber.Ctx) error {
	controller, identity, err := h.controller(c)
	if err != nil {
		return h.handleError(c, err)
	}

	result, err := controller.Submit(requestContext(c))
	if err != nil {
		requestLogger(h.logger, c).Debug().Err(err).Str("user_id", identity.ID).Msg("submit not accepted")
		return h.handleSubmitError(c, result, err)
	}

	return utils.SendSuccess(c, result.Notification.Message, dto.FormSubmitResponse{
		Mode:         result.Mode,
		Place:        result.Place,
		Notification: result.Notification,
		State:        controller.State(),
	})
}

func (h *FormHandler) handleSubmitError(c *fiber.Ctx, result form.SubmitResult, err error) error {
	switch {
	case errors.Is(err, form.ErrValidationFailed):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, result.Notification.Message, fiber.Map{
			"errors":       result.Errors,
			"notification": result.Notification,
		})
	case errors.Is(err, form.ErrSubmissionRejected), errors.Is(err, form.ErrSubmissionFailed):
		details := fiber.Map{"notification": result.Notification}
		if result.StatusCode != 0 {
			details["upstream_status"] = result.StatusCode
		}
		return utils.Fail(c, fiber.StatusBadGateway, result.Notification.Message, details)
	default:
		return h.handleError(c, err)
	}
}

func (h *FormHandler) beginEdit(c *fiber.Ctx) error {
	controller, identity, err := h.controller(c)
	if err != nil {
		return h.handleError(c, err)
	}

	place, err := h.lists.Get(requestContext(c), identity, c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}
	if err := controller.BeginEdit(place); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, form.MsgEditing, controller.State())
}

func (h *FormHandler) cancelEdit(c *fiber.Ctx) error {
	controller, _, err := h.controller(c)
	if err != nil {
		return h.handleError(c, err)
	}
	if !controller.CancelEdit() {
		return utils.SendError(c, fiber.StatusConflict, "not editing a submission")
	}
	return utils.SendSuccess(c, "edit cancelled", controller.State())
}

func (h *FormHandler) dismissNotification(c *fiber.Ctx) error {
	controller, _, err := h.controller(c)
	if err != nil {
		return h.handleError(c, err)
	}
	dismissed := controller.DismissNotification(strings.TrimSpace(c.Query("id")))
	return utils.SendSuccess(c, "notification dismissed", fiber.Map{"dismissed": dismissed})
}

func (h *FormHandler) stream(conn *websocket.Conn) {
	identity, ok := conn.Locals(middleware.LocalIdentity).(models.Identity)
	if !ok || !identity.Present() {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "identity missing"))
		_ = conn.Close()
		return
	}

	controller, err := h.sessions.Controller(identity)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "form unavailable"))
		_ = conn.Close()
		return
	}

	events, cancel := controller.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() {
		defer stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info().Str("user_id", identity.ID).Msg("form websocket connected")
	defer h.logger.Info().Str("user_id", identity.ID).Msg("form websocket disconnected")

	state := controller.State()
	if err := h.write(conn, form.Event{Type: form.EventState, State: &state}); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "form session ended"))
				return
			}
			if err := h.write(conn, event); err != nil {
				return
			}
		}
	}
}

func (h *FormHandler) write(conn *websocket.Conn, event form.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(event)
}

func (h *FormHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, form.ErrNoIdentity):
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, models.ErrUnknownField), errors.Is(err, models.ErrReadOnlyField):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, form.ErrSubmissionInFlight),
		errors.Is(err, form.ErrNotOnFinalSection),
		errors.Is(err, form.ErrNotEditable),
		errors.Is(err, form.ErrControllerClosed):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrListUnavailable):
		requestLogger(h.logger, c).Warn().Err(err).Msg("submission lookup failed")
		return utils.SendError(c, fiber.StatusBadGateway, "unable to load submissions, please try again later")
	case errors.Is(err, service.ErrImageTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrImageRequired), errors.Is(err, service.ErrImageTypeNotAllowed):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("form request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "form request failed")
	}
}
