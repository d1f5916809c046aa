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

func riskFactorUpdate(severity, probability *int) dto.RiskFactorUpdateRequest {
	return dto.RiskFactorUpdateRequest{
		SeverityScore:    severity,
		ProbabilityScore: probability,
	}
}

func newRiskFixture(factors ...models.RiskFactor) (*recorderStub, *factorRepoStub, RiskService) {
	projectRepo := newProjectRepoStub(models.Project{ID: 1, Name: "Infusion Pump", OwnerID: 10})
	memberRepo := newMemberRepoStub(
		models.ProjectMember{ID: 1, ProjectID: 1, UserID: 20, Role: models.ProjectRoleDoctor},
		models.ProjectMember{ID: 2, ProjectID: 1, UserID: 30, Role: models.ProjectRoleManager},
		models.ProjectMember{ID: 3, ProjectID: 1, UserID: 40, Role: models.ProjectRoleAdmin},
	)
	analysisRepo := newAnalysisRepoStub(models.RiskAnalysis{ID: 1, ProjectID: 1, AnalystID: 20})
	factorRepo := newFactorRepoStub(factors...)
	recorder := &recorderStub{}

	svc := NewRiskService(projectRepo, memberRepo, analysisRepo, factorRepo, recorder,
		testValidator(), sanitize.New(), testLogger())
	return recorder, factorRepo, svc
}

func baseFactor() models.RiskFactor {
	return models.RiskFactor{
		ID:                 1,
		AnalysisID:         1,
		LifecycleStage:     models.LifecycleOperation,
		HazardName:         "Air embolism",
		HazardousSituation: "Air enters the line",
		SequenceOfEvents:   "Line primed incorrectly",
		Harm:               "Vascular injury",
		HazardCategory:     models.HazardEnergyFunctional,
		SeverityScore:      3,
		ProbabilityScore:   4,
		RiskScore:          12,
	}
}

func TestUpdateFactorRecomputesScoreAndAuditsDiff(t *testing.T) {
	recorder, factorRepo, svc := newRiskFixture(baseFactor())
	doctor := authz.Identity{ID: 20, Role: models.SystemRoleUser}

	severity := 5
	resp, err := svc.UpdateFactor(context.Background(), doctor, 1,
		riskFactorUpdate(&severity, nil), ClientInfo{IP: "10.0.0.1"})
	require.NoError(t, err)
	require.Equal(t, 5, resp.SeverityScore)
	require.Equal(t, 20, resp.RiskScore)
	require.Equal(t, "high", resp.RiskBand)

	stored := factorRepo.factors[1]
	require.Equal(t, 20, stored.RiskScore)

	require.Len(t, recorder.entries, 1)
	entry := recorder.last()
	require.Equal(t, models.ActionRiskUpdated, entry.Action)
	require.Equal(t, 3, entry.OldValues["severity_score"])
	require.Equal(t, 5, entry.NewValues["severity_score"])
	require.Equal(t, 12, entry.OldValues["risk_score"])
	require.Equal(t, 20, entry.NewValues["risk_score"])
	require.Equal(t, "10.0.0.1", entry.Client.IP)
}

func TestUpdateFactorNoChangesSkipsWriteAndAudit(t *testing.T) {
	recorder, factorRepo, svc := newRiskFixture(baseFactor())
	doctor := authz.Identity{ID: 20, Role: models.SystemRoleUser}

	severity := 3
	probability := 4
	resp, err := svc.UpdateFactor(context.Background(), doctor, 1,
		riskFactorUpdate(&severity, &probability), ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, 12, resp.RiskScore)
	require.Zero(t, factorRepo.updates)
	require.Empty(t, recorder.entries)
}

func TestFactorWritesRequireDoctorRole(t *testing.T) {
	recorder, _, svc := newRiskFixture(baseFactor())

	manager := authz.Identity{ID: 30, Role: models.SystemRoleUser}
	severity := 5
	_, err := svc.UpdateFactor(context.Background(), manager, 1,
		riskFactorUpdate(&severity, nil), ClientInfo{})
	require.ErrorIs(t, err, ErrForbidden)

	// Admin membership grants no clinical writes either.
	admin := authz.Identity{ID: 40, Role: models.SystemRoleUser}
	err = svc.DeleteFactor(context.Background(), admin, 1, ClientInfo{})
	require.ErrorIs(t, err, ErrForbidden)

	require.Empty(t, recorder.entries, "denied operations must not be audited")
}

func TestOwnerMayWriteFactors(t *testing.T) {
	recorder, factorRepo, svc := newRiskFixture(baseFactor())
	owner := authz.Identity{ID: 10, Role: models.SystemRoleUser}

	err := svc.DeleteFactor(context.Background(), owner, 1, ClientInfo{})
	require.NoError(t, err)
	require.NotContains(t, factorRepo.factors, uint(1))

	require.Len(t, recorder.entries, 1)
	require.Equal(t, models.ActionRiskDeleted, recorder.last().Action)
}

func TestUpdateFactorUnknownIDIsNotFound(t *testing.T) {
	_, _, svc := newRiskFixture()
	doctor := authz.Identity{ID: 20, Role: models.SystemRoleUser}

	severity := 2
	_, err := svc.UpdateFactor(context.Background(), doctor, 99,
		riskFactorUpdate(&severity, nil), ClientInfo{})
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestGetAnalysisSummarisesBands(t *testing.T) {
	projectRepo := newProjectRepoStub(models.Project{ID: 1, OwnerID: 10})
	memberRepo := newMemberRepoStub(
		models.ProjectMember{ID: 1, ProjectID: 1, UserID: 30, Role: models.ProjectRoleManager},
	)
	low := baseFactor()
	low.ID = 2
	low.SeverityScore, low.ProbabilityScore, low.RiskScore = 1, 2, 2
	high := baseFactor()
	high.ID = 3
	high.SeverityScore, high.ProbabilityScore, high.RiskScore = 5, 4, 20
	analysisRepo := newAnalysisRepoStub(models.RiskAnalysis{
		ID:        1,
		ProjectID: 1,
		AnalystID: 20,
		Factors:   []models.RiskFactor{high, low},
	})
	svc := NewRiskService(projectRepo, memberRepo, analysisRepo, newFactorRepoStub(),
		&recorderStub{}, testValidator(), sanitize.New(), testLogger())

	// Any member may view.
	manager := authz.Identity{ID: 30, Role: models.SystemRoleUser}
	detail, err := svc.GetAnalysis(context.Background(), manager, 1)
	require.NoError(t, err)
	require.Len(t, detail.Factors, 2)
	require.Equal(t, 1, detail.Summary.High)
	require.Equal(t, 1, detail.Summary.Low)
	require.Equal(t, 0, detail.Summary.Medium)

	outsider := authz.Identity{ID: 99, Role: models.SystemRoleUser}
	_, err = svc.GetAnalysis(context.Background(), outsider, 1)
	require.ErrorIs(t, err, ErrForbidden)
}
