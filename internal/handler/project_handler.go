package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/service"
	"github.com/medsafe-labs/riskboard-api/internal/utils"
)

// ProjectHandler wires project and version HTTP routes.
type ProjectHandler struct {
	service service.ProjectService
	logger  zerolog.Logger
}

// NewProjectHandler constructs the handler.
func NewProjectHandler(service service.ProjectService, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		logger:  logger.With().Str("component", "project_handler").Logger(),
	}
}

// Register attaches project endpoints to the router group.
func (h *ProjectHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)

	router.Get("/:id/versions", h.listVersions)
	router.Post("/:id/versions", h.createVersion)
	router.Patch("/:id/versions/:versionId", h.updateVersion)
}

func (h *ProjectHandler) list(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	req := dto.ProjectListRequest{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	}

	result, err := h.service.List(c.Context(), identity, req)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.OK(c, result.Items, "projects retrieved", result.Pagination)
}

func (h *ProjectHandler) get(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	project, err := h.service.Get(c.Context(), identity, id)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "project retrieved", project)
}

func (h *ProjectHandler) create(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.ProjectCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	project, err := h.service.Create(c.Context(), identity, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), project, "project created", err)
}

func (h *ProjectHandler) update(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.ProjectUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	project, err := h.service.Update(c.Context(), identity, id, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), project, "project updated", err)
}

func (h *ProjectHandler) delete(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	err = h.service.Delete(c.Context(), identity, id, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), fiber.Map{"id": id}, "project deleted", err)
}

func (h *ProjectHandler) listVersions(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	versions, err := h.service.ListVersions(c.Context(), identity, id)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "versions retrieved", versions)
}

func (h *ProjectHandler) createVersion(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.VersionCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	version, err := h.service.CreateVersion(c.Context(), identity, id, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), version, "version created", err)
}

func (h *ProjectHandler) updateVersion(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	versionID, err := parseUintParam(c, "versionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.VersionUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	version, err := h.service.UpdateVersion(c.Context(), identity, id, versionID, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), version, "version updated", err)
}
