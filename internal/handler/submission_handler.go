package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/spot-form-api/internal/dto"
	"github.com/noah-isme/spot-form-api/internal/service"
	"github.com/noah-isme/spot-form-api/internal/utils"
)

// SubmissionHandler serves the submission list modal, the review dialog and
// the submit audit log.
type SubmissionHandler struct {
	lists    service.SubmissionListService
	attempts service.AttemptService
	logger   zerolog.Logger
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(lists service.SubmissionListService, attempts service.AttemptService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		lists:    lists,
		attempts: attempts,
		logger:   logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register wires submission routes.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/attempts", h.listAttempts)
	router.Get("/:id", h.review)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	identity, ok, resp := requireIdentity(c)
	if !ok {
		return resp
	}

	list, err := h.lists.List(requestContext(c), identity)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, list.Items, "submissions retrieved", fiber.Map{"counts": list.Counts})
}

func (h *SubmissionHandler) review(c *fiber.Ctx) error {
	identity, ok, resp := requireIdentity(c)
	if !ok {
		return resp
	}

	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "submission id is required")
	}

	review, err := h.lists.Review(requestContext(c), identity, id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "submission retrieved", review)
}

func (h *SubmissionHandler) listAttempts(c *fiber.Ctx) error {
	identity, ok, resp := requireIdentity(c)
	if !ok {
		return resp
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	query := dto.AttemptQuery{Outcome: strings.TrimSpace(c.Query("outcome")), Limit: limit}
	items, err := h.attempts.ListRecent(requestContext(c), identity.ID, query)
	if err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "invalid attempt query", nil)
		}
		return h.handleError(c, err)
	}

	return utils.OK(c, items, "submission attempts retrieved", fiber.Map{"count": len(items)})
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrListUnavailable):
		requestLogger(h.logger, c).Warn().Err(err).Msg("submission list failed")
		return utils.SendError(c, fiber.StatusBadGateway, "unable to load submissions, please try again later")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("submission request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "submission request failed")
	}
}
