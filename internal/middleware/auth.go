package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/repository"
	"github.com/medsafe-labs/riskboard-api/internal/service"
	"github.com/medsafe-labs/riskboard-api/internal/utils"
)

// Locals keys set by the auth middleware.
const (
	LocalsIdentity  = "identity"
	LocalsSessionID = "session_id"
)

// Protected validates the bearer token, checks the session is still alive and
// resolves the acting user. Deactivated users are rejected even with a valid
// token.
func Protected(secret string, sessions service.SessionStore, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get("Authorization"))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing or malformed")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		sessionID, _ := claims["sid"].(string)
		if sessionID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		session, err := sessions.Get(c.Context(), sessionID)
		if err != nil {
			if errors.Is(err, service.ErrSessionNotFound) {
				return utils.SendError(c, fiber.StatusUnauthorized, "session expired")
			}
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to verify session")
		}

		user, err := users.GetByID(c.Context(), session.UserID)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "unknown user")
		}
		if !user.IsActive {
			return utils.SendError(c, fiber.StatusForbidden, "account is deactivated")
		}

		c.Locals(LocalsIdentity, authz.Identity{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		})
		c.Locals(LocalsSessionID, sessionID)

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
