package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/service"
	"github.com/medsafe-labs/riskboard-api/internal/utils"
)

// MemberHandler wires project membership HTTP routes.
type MemberHandler struct {
	service service.MemberService
	logger  zerolog.Logger
}

// NewMemberHandler constructs the handler.
func NewMemberHandler(service service.MemberService, logger zerolog.Logger) *MemberHandler {
	return &MemberHandler{
		service: service,
		logger:  logger.With().Str("component", "member_handler").Logger(),
	}
}

// Register attaches membership endpoints under a project group.
func (h *MemberHandler) Register(router fiber.Router) {
	router.Get("/:id/members", h.list)
	router.Post("/:id/members", h.add)
	router.Patch("/:id/members/:userId", h.changeRole)
	router.Delete("/:id/members/:userId", h.remove)
}

func (h *MemberHandler) list(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	projectID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	members, err := h.service.List(c.Context(), identity, projectID)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "members retrieved", members)
}

func (h *MemberHandler) add(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	projectID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.MemberAddRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	member, err := h.service.Add(c.Context(), identity, projectID, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), member, "member added", err)
}

func (h *MemberHandler) changeRole(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	projectID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.MemberRoleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	member, err := h.service.ChangeRole(c.Context(), identity, projectID, userID, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), member, "member role updated", err)
}

func (h *MemberHandler) remove(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	projectID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	err = h.service.Remove(c.Context(), identity, projectID, userID, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), fiber.Map{"user_id": userID}, "member removed", err)
}
