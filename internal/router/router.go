package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medsafe-labs/riskboard-api/internal/config"
	"github.com/medsafe-labs/riskboard-api/internal/handler"
	"github.com/medsafe-labs/riskboard-api/internal/middleware"
	"github.com/medsafe-labs/riskboard-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	ProjectHandler   *handler.ProjectHandler
	MemberHandler    *handler.MemberHandler
	RiskHandler      *handler.RiskHandler
	UserHandler      *handler.UserHandler
	ChangelogHandler *handler.ChangelogHandler
	AuthMiddleware   fiber.Handler
	LoginRateLimit   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	authMiddleware := deps.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		var loginGuards []fiber.Handler
		if deps.LoginRateLimit != nil {
			loginGuards = append(loginGuards, deps.LoginRateLimit)
		}
		deps.AuthHandler.Register(auth, loginGuards...)
		deps.AuthHandler.RegisterProtected(auth, authMiddleware)
	}

	if deps.ProjectHandler != nil {
		projects := api.Group("/projects", authMiddleware)
		deps.ProjectHandler.Register(projects)

		if deps.MemberHandler != nil {
			deps.MemberHandler.Register(projects)
		}
		if deps.RiskHandler != nil {
			deps.RiskHandler.RegisterProjectScoped(projects)
		}
	}

	if deps.RiskHandler != nil {
		risks := api.Group("/risks", authMiddleware)
		deps.RiskHandler.Register(risks)
	}

	if deps.ChangelogHandler != nil {
		changelog := api.Group("/changelog", authMiddleware)
		deps.ChangelogHandler.RegisterOverview(changelog, middleware.RequireSysAdmin())
		deps.ChangelogHandler.Register(changelog)
	}

	if deps.UserHandler != nil {
		users := api.Group("/users", authMiddleware)
		deps.UserHandler.RegisterProfile(users)
		deps.UserHandler.Register(users, middleware.RequireSysAdmin())
	}
}
