package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/service"
	"github.com/medsafe-labs/riskboard-api/internal/utils"
)

// UserHandler wires user administration HTTP routes. The router mounts these
// behind the system administrator guard, except the profile endpoints.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches administration endpoints to the router group. Guards
// passed in run before each handler.
func (h *UserHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("", append(guards, h.list)...)
	router.Get("/:id", append(guards, h.get)...)
	router.Patch("/:id/role", append(guards, h.changeRole)...)
	router.Patch("/:id/activation", append(guards, h.setActive)...)
}

// RegisterProfile attaches self-service profile endpoints.
func (h *UserHandler) RegisterProfile(router fiber.Router) {
	router.Get("/me", h.me)
	router.Patch("/me", h.updateProfile)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
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

	req := dto.UserListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
	}
	switch strings.ToLower(strings.TrimSpace(c.Query("active"))) {
	case "true":
		active := true
		req.Active = &active
	case "false":
		active := false
		req.Active = &active
	}

	result, err := h.service.List(c.Context(), identity, req)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.OK(c, result.Items, "users retrieved", result.Pagination)
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.service.Get(c.Context(), identity, id)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "user retrieved", user)
}

func (h *UserHandler) me(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	user, err := h.service.Get(c.Context(), identity, identity.ID)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "profile retrieved", user)
}

func (h *UserHandler) updateProfile(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.UserProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.UpdateProfile(c.Context(), identity, identity.ID, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), user, "profile updated", err)
}

func (h *UserHandler) changeRole(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.UserRoleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.ChangeRole(c.Context(), identity, id, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), user, "user role updated", err)
}

func (h *UserHandler) setActive(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.UserActivationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.SetActive(c.Context(), identity, id, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), user, "user activation updated", err)
}
