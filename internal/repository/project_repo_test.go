package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/models"
)

func TestProjectListAccessibleToOwnerAndMembers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)

	owned := models.Project{Name: "Owned", DeviceName: "D1", Status: models.ProjectStatusDraft, OwnerID: 1}
	joined := models.Project{Name: "Joined", DeviceName: "D2", Status: models.ProjectStatusDraft, OwnerID: 2}
	foreign := models.Project{Name: "Foreign", DeviceName: "D3", Status: models.ProjectStatusDraft, OwnerID: 2}
	require.NoError(t, db.Create(&owned).Error)
	require.NoError(t, db.Create(&joined).Error)
	require.NoError(t, db.Create(&foreign).Error)
	require.NoError(t, db.Create(&models.ProjectMember{
		ProjectID: joined.ID, UserID: 1, Role: models.ProjectRoleDoctor,
	}).Error)

	uid := uint(1)
	projects, total, err := repo.List(context.Background(), ProjectFilter{AccessibleTo: &uid})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	names := []string{projects[0].Name, projects[1].Name}
	require.ElementsMatch(t, []string{"Owned", "Joined"}, names)
}

func TestProjectListStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)

	require.NoError(t, db.Create(&models.Project{Name: "A", DeviceName: "D", Status: models.ProjectStatusDraft, OwnerID: 1}).Error)
	require.NoError(t, db.Create(&models.Project{Name: "B", DeviceName: "D", Status: models.ProjectStatusReview, OwnerID: 1}).Error)

	projects, total, err := repo.List(context.Background(), ProjectFilter{Status: models.ProjectStatusReview})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "B", projects[0].Name)
}

func TestProjectDeleteCascadesButKeepsChangelog(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)

	project := models.Project{Name: "Doomed", DeviceName: "D", Status: models.ProjectStatusDraft, OwnerID: 1}
	require.NoError(t, db.Create(&project).Error)
	require.NoError(t, db.Create(&models.ProjectMember{ProjectID: project.ID, UserID: 2, Role: models.ProjectRoleManager}).Error)
	require.NoError(t, db.Create(&models.ProjectVersion{ProjectID: project.ID, Label: "v1"}).Error)

	analysis := models.RiskAnalysis{ProjectID: project.ID, AnalystID: 2}
	require.NoError(t, db.Create(&analysis).Error)
	require.NoError(t, db.Create(&models.RiskFactor{
		AnalysisID:         analysis.ID,
		LifecycleStage:     models.LifecycleOperation,
		HazardName:         "Leak",
		HazardousSituation: "s",
		SequenceOfEvents:   "s",
		Harm:               "h",
		HazardCategory:     models.HazardSoftware,
		SeverityScore:      2,
		ProbabilityScore:   2,
		RiskScore:          4,
	}).Error)

	entry := models.ChangeLog{ActionType: models.ActionProjectCreated, Description: "created", UserID: 1, ProjectID: &project.ID}
	require.NoError(t, db.Create(&entry).Error)

	require.NoError(t, repo.Delete(context.Background(), project.ID))

	_, err := repo.GetByID(context.Background(), project.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var members, versions, analyses, factors, logs int64
	require.NoError(t, db.Model(&models.ProjectMember{}).Count(&members).Error)
	require.NoError(t, db.Model(&models.ProjectVersion{}).Count(&versions).Error)
	require.NoError(t, db.Model(&models.RiskAnalysis{}).Count(&analyses).Error)
	require.NoError(t, db.Model(&models.RiskFactor{}).Count(&factors).Error)
	require.NoError(t, db.Model(&models.ChangeLog{}).Count(&logs).Error)
	require.Zero(t, members)
	require.Zero(t, versions)
	require.Zero(t, analyses)
	require.Zero(t, factors)
	require.Equal(t, int64(1), logs, "audit history outlives the project")
}

func TestVersionMarkCurrentClearsSiblings(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVersionRepository(db)

	v1 := models.ProjectVersion{ProjectID: 1, Label: "v1", IsCurrent: true}
	v2 := models.ProjectVersion{ProjectID: 1, Label: "v2"}
	require.NoError(t, db.Create(&v1).Error)
	require.NoError(t, db.Create(&v2).Error)

	require.NoError(t, repo.MarkCurrent(context.Background(), 1, v2.ID))

	got1, err := repo.GetByID(context.Background(), v1.ID)
	require.NoError(t, err)
	require.False(t, got1.IsCurrent)

	got2, err := repo.GetByID(context.Background(), v2.ID)
	require.NoError(t, err)
	require.True(t, got2.IsCurrent)
}
