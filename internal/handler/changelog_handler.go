package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/medsafe-labs/riskboard-api/internal/service"
	"github.com/medsafe-labs/riskboard-api/internal/utils"
)

// ChangelogHandler wires audit trail HTTP routes.
type ChangelogHandler struct {
	service service.ChangelogService
	logger  zerolog.Logger
}

// NewChangelogHandler constructs the handler.
func NewChangelogHandler(service service.ChangelogService, logger zerolog.Logger) *ChangelogHandler {
	return &ChangelogHandler{
		service: service,
		logger:  logger.With().Str("component", "changelog_handler").Logger(),
	}
}

// Register attaches changelog endpoints to the router group.
func (h *ChangelogHandler) Register(router fiber.Router) {
	router.Get("/projects/:id", h.projectChangelog)
	router.Get("/:id", h.entryDetail)
}

// RegisterOverview attaches the system-wide overview endpoint. Guards passed in
// run before the handler.
func (h *ChangelogHandler) RegisterOverview(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/overview", append(guards, h.overview)...)
}

func (h *ChangelogHandler) projectChangelog(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	projectID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	result, err := h.service.ProjectChangelog(c.Context(), identity, projectID, page, pageSize)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.OK(c, result.Items, "changelog retrieved", result.Pagination)
}

func (h *ChangelogHandler) entryDetail(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	entryID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	entry, err := h.service.EntryDetail(c.Context(), identity, entryID)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "changelog entry retrieved", entry)
}

func (h *ChangelogHandler) overview(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	overview, err := h.service.Overview(c.Context(), identity)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "changelog overview retrieved", overview)
}
