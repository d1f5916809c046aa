package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/middleware"
	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/internal/service"
)

type projectServiceStub struct {
	service.ProjectService
	getErr    error
	createErr error
	deleteErr error
}

func (s *projectServiceStub) Get(ctx context.Context, actor authz.Identity, projectID uint) (dto.ProjectResponse, error) {
	if s.getErr != nil {
		return dto.ProjectResponse{}, s.getErr
	}
	return dto.ProjectResponse{ID: projectID, Name: "Infusion Pump"}, nil
}

func (s *projectServiceStub) Create(ctx context.Context, actor authz.Identity, req dto.ProjectCreateRequest, client service.ClientInfo) (dto.ProjectResponse, error) {
	return dto.ProjectResponse{ID: 7, Name: req.Name, OwnerID: actor.ID}, s.createErr
}

func (s *projectServiceStub) Delete(ctx context.Context, actor authz.Identity, projectID uint, client service.ClientInfo) error {
	return s.deleteErr
}

func newProjectApp(stub *projectServiceStub) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalsIdentity, authz.Identity{ID: 1, Role: models.SystemRoleUser})
		return c.Next()
	})
	NewProjectHandler(stub, zerolog.New(io.Discard)).Register(app.Group("/projects"))
	return app
}

func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestProjectGetMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", service.ErrNotFound, fiber.StatusNotFound},
		{"forbidden", service.ErrForbidden, fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newProjectApp(&projectServiceStub{getErr: tc.err})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/projects/1", nil), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestProjectCreateSucceeds(t *testing.T) {
	app := newProjectApp(&projectServiceStub{})

	body := bytes.NewBufferString(`{"name":"Pulse Oximeter","device_name":"OX-5"}`)
	req := httptest.NewRequest(http.MethodPost, "/projects", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                `json:"success"`
		Data    dto.ProjectResponse `json:"data"`
	}
	decodeBody(t, resp, &payload)
	require.True(t, payload.Success)
	require.Equal(t, uint(7), payload.Data.ID)
}

func TestProjectCreateAuditFailureIsDegradedSuccess(t *testing.T) {
	stub := &projectServiceStub{
		createErr: fmt.Errorf("%w: disk full", service.ErrAuditFailed),
	}
	app := newProjectApp(stub)

	body := bytes.NewBufferString(`{"name":"Pulse Oximeter","device_name":"OX-5"}`)
	req := httptest.NewRequest(http.MethodPost, "/projects", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Data    dto.ProjectResponse    `json:"data"`
		Meta    map[string]interface{} `json:"meta"`
	}
	decodeBody(t, resp, &payload)
	require.True(t, payload.Success)
	require.Equal(t, uint(7), payload.Data.ID, "the committed change is still returned")
	require.Equal(t, true, payload.Meta["degraded"])
}

func TestProjectDeleteConflictMapsTo409(t *testing.T) {
	app := newProjectApp(&projectServiceStub{deleteErr: service.ErrConflict})

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/projects/1", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestProjectBadIdentifierIs400(t *testing.T) {
	app := newProjectApp(&projectServiceStub{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/projects/abc", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
