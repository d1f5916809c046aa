package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/middleware"
	"github.com/medsafe-labs/riskboard-api/internal/service"
	"github.com/medsafe-labs/riskboard-api/internal/utils"
)

func identityFromCtx(c *fiber.Ctx) (authz.Identity, bool) {
	return middleware.IdentityFromCtx(c)
}

func clientInfo(c *fiber.Ctx) service.ClientInfo {
	return service.ClientInfo{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// degradedMeta flags a response whose primary operation succeeded but whose
// audit trail entry could not be written.
func degradedMeta() fiber.Map {
	return fiber.Map{
		"degraded": true,
		"detail":   "change was applied but could not be recorded in the audit trail",
	}
}

// respondMutation sends the mutation result, downgrading audit failures to a
// degraded success rather than discarding the already committed change.
func respondMutation(c *fiber.Ctx, logger *zerolog.Logger, data interface{}, message string, err error) error {
	if err == nil {
		return utils.SendSuccess(c, message, data)
	}
	if errors.Is(err, service.ErrAuditFailed) {
		logger.Error().Err(err).Msg("audit trail write failed")
		return utils.OK(c, data, message, degradedMeta())
	}
	return respondServiceError(c, logger, err)
}

// respondServiceError maps service sentinel errors onto HTTP statuses.
func respondServiceError(c *fiber.Ctx, logger *zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(validationErrors))
	default:
		logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func validationDetails(errs validator.ValidationErrors) []fiber.Map {
	details := make([]fiber.Map, 0, len(errs))
	for _, fieldErr := range errs {
		details = append(details, fiber.Map{
			"field": fieldErr.Field(),
			"rule":  fieldErr.Tag(),
		})
	}
	return details
}
