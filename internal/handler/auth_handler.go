package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/middleware"
	"github.com/medsafe-labs/riskboard-api/internal/service"
	"github.com/medsafe-labs/riskboard-api/internal/utils"
)

// AuthHandler wires authentication endpoints.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches the public login route. Guards passed in run before the
// handler.
func (h *AuthHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/login", append(guards, h.login)...)
}

// RegisterProtected attaches routes requiring an authenticated session. Guards
// passed in run before the handler.
func (h *AuthHandler) RegisterProtected(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/logout", append(guards, h.logout)...)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Login(c.Context(), req, clientInfo(c))
	if err != nil {
		return respondMutation(c, requestLogger(h.logger, c), result, "login successful", err)
	}

	return utils.SendSuccess(c, "login successful", result)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	identity, ok := identityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	sessionID, _ := c.Locals(middleware.LocalsSessionID).(string)

	if err := h.service.Logout(c.Context(), identity, sessionID, clientInfo(c)); err != nil {
		return respondMutation(c, requestLogger(h.logger, c), fiber.Map{}, "logged out", err)
	}

	return utils.SendSuccess(c, "logged out", fiber.Map{})
}
