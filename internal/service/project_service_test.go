package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/pkg/sanitize"
)

func newProjectFixture(recorder *recorderStub) (*projectRepoStub, *versionRepoStub, ProjectService) {
	projectRepo := newProjectRepoStub(models.Project{
		ID:         1,
		Name:       "Dialysis Monitor",
		Status:     models.ProjectStatusDraft,
		DeviceName: "DM-200",
		OwnerID:    10,
	})
	memberRepo := newMemberRepoStub(
		models.ProjectMember{ID: 1, ProjectID: 1, UserID: 20, Role: models.ProjectRoleManager},
		models.ProjectMember{ID: 2, ProjectID: 1, UserID: 30, Role: models.ProjectRoleDoctor},
	)
	versionRepo := &versionRepoStub{}
	svc := NewProjectService(projectRepo, memberRepo, versionRepo, recorder,
		testValidator(), sanitize.New(), testLogger())
	return projectRepo, versionRepo, svc
}

func TestCreateProjectStartsAsDraftAndAudits(t *testing.T) {
	recorder := &recorderStub{}
	_, _, svc := newProjectFixture(recorder)
	actor := authz.Identity{ID: 50, Role: models.SystemRoleUser}

	project, err := svc.Create(context.Background(), actor, dto.ProjectCreateRequest{
		Name:       "Pulse Oximeter",
		DeviceName: "OX-5",
	}, ClientInfo{IP: "10.2.2.2"})
	require.NoError(t, err)
	require.Equal(t, "draft", project.Status)
	require.Equal(t, uint(50), project.OwnerID)

	require.Len(t, recorder.entries, 1)
	entry := recorder.last()
	require.Equal(t, models.ActionProjectCreated, entry.Action)
	require.Equal(t, project.ID, *entry.ProjectID)
}

func TestCreateProjectReturnsResultOnAuditFailure(t *testing.T) {
	recorder := &recorderStub{err: errors.New("changelog table unavailable")}
	_, _, svc := newProjectFixture(recorder)
	actor := authz.Identity{ID: 50, Role: models.SystemRoleUser}

	project, err := svc.Create(context.Background(), actor, dto.ProjectCreateRequest{
		Name:       "Pulse Oximeter",
		DeviceName: "OX-5",
	}, ClientInfo{})
	require.Error(t, err)
	require.NotZero(t, project.ID, "the created project must still be returned")
}

func TestUpdateProjectEmptyDiffSkipsWriteAndAudit(t *testing.T) {
	recorder := &recorderStub{}
	_, _, svc := newProjectFixture(recorder)
	owner := authz.Identity{ID: 10, Role: models.SystemRoleUser}

	name := "Dialysis Monitor"
	project, err := svc.Update(context.Background(), owner, 1,
		dto.ProjectUpdateRequest{Name: &name}, ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, "Dialysis Monitor", project.Name)
	require.Empty(t, recorder.entries)
}

func TestUpdateProjectStatusUsesStatusAction(t *testing.T) {
	recorder := &recorderStub{}
	projectRepo, _, svc := newProjectFixture(recorder)
	manager := authz.Identity{ID: 20, Role: models.SystemRoleUser}

	status := "in_progress"
	project, err := svc.Update(context.Background(), manager, 1,
		dto.ProjectUpdateRequest{Status: &status}, ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, "in_progress", project.Status)
	require.Equal(t, models.ProjectStatusInProgress, projectRepo.projects[1].Status)

	require.Len(t, recorder.entries, 1)
	entry := recorder.last()
	require.Equal(t, models.ActionProjectStatusChanged, entry.Action)
	require.Equal(t, "draft", entry.OldValues["status"])
	require.Equal(t, "in_progress", entry.NewValues["status"])
}

func TestDeleteProjectIsAdminOnly(t *testing.T) {
	recorder := &recorderStub{}
	projectRepo, _, svc := newProjectFixture(recorder)

	manager := authz.Identity{ID: 20, Role: models.SystemRoleUser}
	err := svc.Delete(context.Background(), manager, 1, ClientInfo{})
	require.ErrorIs(t, err, ErrForbidden)
	require.Empty(t, recorder.entries)

	owner := authz.Identity{ID: 10, Role: models.SystemRoleUser}
	err = svc.Delete(context.Background(), owner, 1, ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, []uint{1}, projectRepo.deleted)
	require.Equal(t, models.ActionProjectDeleted, recorder.last().Action)
}

func TestGetProjectMissingIsNotFoundBeforePermission(t *testing.T) {
	recorder := &recorderStub{}
	_, _, svc := newProjectFixture(recorder)
	outsider := authz.Identity{ID: 99, Role: models.SystemRoleUser}

	_, err := svc.Get(context.Background(), outsider, 42)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), outsider, 1)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCreateVersionRejectsDuplicateLabel(t *testing.T) {
	recorder := &recorderStub{}
	_, versionRepo, svc := newProjectFixture(recorder)
	owner := authz.Identity{ID: 10, Role: models.SystemRoleUser}

	first, err := svc.CreateVersion(context.Background(), owner, 1,
		dto.VersionCreateRequest{Label: "v1.0", IsCurrent: true}, ClientInfo{})
	require.NoError(t, err)
	require.True(t, first.IsCurrent)

	_, err = svc.CreateVersion(context.Background(), owner, 1,
		dto.VersionCreateRequest{Label: "v1.0"}, ClientInfo{})
	require.ErrorIs(t, err, ErrConflict)
	require.Len(t, versionRepo.versions, 1)
}

func TestCreateVersionMarkCurrentClearsOthers(t *testing.T) {
	recorder := &recorderStub{}
	_, versionRepo, svc := newProjectFixture(recorder)
	owner := authz.Identity{ID: 10, Role: models.SystemRoleUser}

	_, err := svc.CreateVersion(context.Background(), owner, 1,
		dto.VersionCreateRequest{Label: "v1.0", IsCurrent: true}, ClientInfo{})
	require.NoError(t, err)

	second, err := svc.CreateVersion(context.Background(), owner, 1,
		dto.VersionCreateRequest{Label: "v1.1", IsCurrent: true}, ClientInfo{})
	require.NoError(t, err)
	require.True(t, second.IsCurrent)

	for _, v := range versionRepo.versions {
		if v.Label == "v1.0" {
			require.False(t, v.IsCurrent)
		}
	}
}
