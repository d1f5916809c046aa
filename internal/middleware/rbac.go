package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/utils"
)

// IdentityFromCtx returns the identity installed by the auth middleware.
func IdentityFromCtx(c *fiber.Ctx) (authz.Identity, bool) {
	identity, ok := c.Locals(LocalsIdentity).(authz.Identity)
	return identity, ok
}

// RequireSysAdmin guards system-scope routes. Project-scope rules stay in the
// services, which hold the entity snapshots the evaluator needs; this guard
// only fences surfaces no ordinary user may reach at all.
func RequireSysAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromCtx(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if !authz.CanManageUsers(identity) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
