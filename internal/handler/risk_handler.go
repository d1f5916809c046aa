package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/service"
	"github.com/medsafe-labs/riskboard-api/internal/utils"
)

// RiskHandler wires risk analysis and risk factor HTTP routes.
type RiskHandler struct {
	service service.RiskService
	logger  zerolog.Logger
}

// NewRiskHandler constructs the handler.
func NewRiskHandler(service service.RiskService, logger zerolog.Logger) *RiskHandler {
	return &RiskHandler{
		service: service,
		logger:  logger.With().Str("component", "risk_handler").Logger(),
	}
}

// RegisterProjectScoped attaches analysis listing and creation under projects.
func (h *RiskHandler) RegisterProjectScoped(router fiber.Router) {
	router.Get("/:id/analyses", h.listAnalyses)
	router.Post("/:id/analyses", h.createAnalysis)
}

// Register attaches analysis detail and factor endpoints.
func (h *RiskHandler) Register(router fiber.Router) {
	router.Get("/analyses/:id", h.getAnalysis)
	router.Post("/analyses/:id/factors", h.createFactor)
	router.Patch("/factors/:id", h.updateFactor)
	router.Delete("/factors/:id", h.deleteFactor)
}

func (h *RiskHandler) listAnalyses(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	projectID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	analyses, err := h.service.ListAnalyses(c.Context(), identity, projectID)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "analyses retrieved", analyses)
}

func (h *RiskHandler) getAnalysis(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	analysisID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	analysis, err := h.service.GetAnalysis(c.Context(), identity, analysisID)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "analysis retrieved", analysis)
}

func (h *RiskHandler) createAnalysis(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	projectID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.RiskAnalysisCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	analysis, err := h.service.CreateAnalysis(c.Context(), identity, projectID, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), analysis, "analysis created", err)
}

func (h *RiskHandler) createFactor(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	analysisID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.RiskFactorCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	factor, err := h.service.CreateFactor(c.Context(), identity, analysisID, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), factor, "risk factor created", err)
}

func (h *RiskHandler) updateFactor(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	factorID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.RiskFactorUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	factor, err := h.service.UpdateFactor(c.Context(), identity, factorID, req, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), factor, "risk factor updated", err)
}

func (h *RiskHandler) deleteFactor(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	factorID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	err = h.service.DeleteFactor(c.Context(), identity, factorID, clientInfo(c))
	return respondMutation(c, requestLogger(h.logger, c), fiber.Map{"id": factorID}, "risk factor deleted", err)
}
