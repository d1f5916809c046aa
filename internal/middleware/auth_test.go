package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/internal/repository"
	"github.com/medsafe-labs/riskboard-api/internal/service"
)

const testSecret = "test-secret"

type sessionStoreStub struct {
	sessions map[string]service.Session
}

func (s *sessionStoreStub) Create(ctx context.Context, session service.Session) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *sessionStoreStub) Get(ctx context.Context, id string) (service.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return service.Session{}, service.ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type userLookupStub struct {
	repository.UserRepository
	users map[uint]models.User
}

func (s *userLookupStub) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func protectedApp(sessions service.SessionStore, users repository.UserRepository) *fiber.App {
	app := fiber.New()
	app.Get("/secure", Protected(testSecret, sessions, users), func(c *fiber.Ctx) error {
		identity, _ := IdentityFromCtx(c)
		return c.JSON(fiber.Map{"user_id": identity.ID})
	})
	return app
}

func signToken(t *testing.T, sessionID string, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 1,
		"sid": sessionID,
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestProtectedRejectsMissingOrInvalidToken(t *testing.T) {
	sessions := &sessionStoreStub{sessions: map[string]service.Session{}}
	users := &userLookupStub{users: map[uint]models.User{}}
	app := protectedApp(sessions, users)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/secure", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "s1", "wrong-secret"))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRejectsExpiredSession(t *testing.T) {
	sessions := &sessionStoreStub{sessions: map[string]service.Session{}}
	users := &userLookupStub{users: map[uint]models.User{}}
	app := protectedApp(sessions, users)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "gone", testSecret))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRejectsDeactivatedUser(t *testing.T) {
	sessions := &sessionStoreStub{sessions: map[string]service.Session{
		"s1": {ID: "s1", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	users := &userLookupStub{users: map[uint]models.User{
		1: {ID: 1, Email: "off@clinic.test", Role: models.SystemRoleUser, IsActive: false},
	}}
	app := protectedApp(sessions, users)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "s1", testSecret))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestProtectedInstallsIdentity(t *testing.T) {
	sessions := &sessionStoreStub{sessions: map[string]service.Session{
		"s1": {ID: "s1", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	users := &userLookupStub{users: map[uint]models.User{
		1: {ID: 1, Email: "doc@clinic.test", Role: models.SystemRoleUser, IsActive: true},
	}}
	app := protectedApp(sessions, users)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "s1", testSecret))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireSysAdmin(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", func(c *fiber.Ctx) error {
		c.Locals(LocalsIdentity, authz.Identity{ID: 1, Role: models.SystemRoleUser})
		return c.Next()
	}, RequireSysAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/admin-ok", func(c *fiber.Ctx) error {
		c.Locals(LocalsIdentity, authz.Identity{ID: 1, Role: models.SystemRoleSysAdmin})
		return c.Next()
	}, RequireSysAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/admin-ok", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
