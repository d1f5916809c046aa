package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/internal/repository"
	"github.com/medsafe-labs/riskboard-api/pkg/sanitize"
)

// RiskService exposes risk analyses and their factors. Reads require project
// view access; writes require the clinical risk-editing capability.
type RiskService interface {
	ListAnalyses(ctx context.Context, actor authz.Identity, projectID uint) ([]dto.RiskAnalysisResponse, error)
	GetAnalysis(ctx context.Context, actor authz.Identity, analysisID uint) (dto.RiskAnalysisDetailResponse, error)
	CreateAnalysis(ctx context.Context, actor authz.Identity, projectID uint, req dto.RiskAnalysisCreateRequest, client ClientInfo) (dto.RiskAnalysisResponse, error)

	CreateFactor(ctx context.Context, actor authz.Identity, analysisID uint, req dto.RiskFactorCreateRequest, client ClientInfo) (dto.RiskFactorResponse, error)
	UpdateFactor(ctx context.Context, actor authz.Identity, factorID uint, req dto.RiskFactorUpdateRequest, client ClientInfo) (dto.RiskFactorResponse, error)
	DeleteFactor(ctx context.Context, actor authz.Identity, factorID uint, client ClientInfo) error
}

type riskService struct {
	projects  repository.ProjectRepository
	members   repository.MemberRepository
	analyses  repository.RiskAnalysisRepository
	factors   repository.RiskFactorRepository
	recorder  ChangeRecorder
	validator *validator.Validate
	sanitizer *sanitize.Sanitizer
	logger    zerolog.Logger
}

// NewRiskService constructs the risk service.
func NewRiskService(
	projects repository.ProjectRepository,
	members repository.MemberRepository,
	analyses repository.RiskAnalysisRepository,
	factors repository.RiskFactorRepository,
	recorder ChangeRecorder,
	validate *validator.Validate,
	sanitizer *sanitize.Sanitizer,
	logger zerolog.Logger,
) RiskService {
	return &riskService{
		projects:  projects,
		members:   members,
		analyses:  analyses,
		factors:   factors,
		recorder:  recorder,
		validator: validate,
		sanitizer: sanitizer,
		logger:    logger.With().Str("component", "risk_service").Logger(),
	}
}

func (s *riskService) ListAnalyses(ctx context.Context, actor authz.Identity, projectID uint) ([]dto.RiskAnalysisResponse, error) {
	if _, err := s.authorizeProject(ctx, actor, projectID, authz.ProjectView); err != nil {
		return nil, err
	}

	analyses, err := s.analyses.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RiskAnalysisResponse, 0, len(analyses))
	for _, analysis := range analyses {
		out = append(out, dto.NewRiskAnalysisResponse(analysis))
	}
	return out, nil
}

func (s *riskService) GetAnalysis(ctx context.Context, actor authz.Identity, analysisID uint) (dto.RiskAnalysisDetailResponse, error) {
	analysis, err := s.analyses.GetWithFactors(ctx, analysisID)
	if err != nil {
		return dto.RiskAnalysisDetailResponse{}, notFoundOr(err)
	}
	if _, err := s.authorizeProject(ctx, actor, analysis.ProjectID, authz.ProjectView); err != nil {
		return dto.RiskAnalysisDetailResponse{}, err
	}

	detail := dto.RiskAnalysisDetailResponse{
		RiskAnalysisResponse: dto.NewRiskAnalysisResponse(analysis),
		Factors:              make([]dto.RiskFactorResponse, 0, len(analysis.Factors)),
	}
	for _, factor := range analysis.Factors {
		detail.Factors = append(detail.Factors, dto.NewRiskFactorResponse(factor))
		switch models.RiskBand(factor.RiskScore) {
		case "high":
			detail.Summary.High++
		case "medium":
			detail.Summary.Medium++
		default:
			detail.Summary.Low++
		}
	}
	return detail, nil
}

func (s *riskService) CreateAnalysis(ctx context.Context, actor authz.Identity, projectID uint, req dto.RiskAnalysisCreateRequest, client ClientInfo) (dto.RiskAnalysisResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.RiskAnalysisResponse{}, err
	}
	project, err := s.authorizeProject(ctx, actor, projectID, authz.RiskWrite)
	if err != nil {
		return dto.RiskAnalysisResponse{}, err
	}

	contactType := models.ContactType(req.ContactType)
	if contactType == "" {
		contactType = models.ContactNone
	}
	analysis := models.RiskAnalysis{
		ProjectID:      projectID,
		AnalystID:      actor.ID,
		HasBodyContact: req.HasBodyContact,
		ContactType:    contactType,
	}
	if err := s.analyses.Create(ctx, &analysis); err != nil {
		return dto.RiskAnalysisResponse{}, err
	}

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionRiskCreated,
		Description: fmt.Sprintf("Started risk analysis for project %q", project.Name),
		TargetType:  "risk_analysis",
		TargetID:    uintRef(analysis.ID),
		TargetName:  fmt.Sprintf("analysis #%d", analysis.ID),
		ProjectID:   uintRef(projectID),
		NewValues: map[string]interface{}{
			"has_body_contact": analysis.HasBodyContact,
			"contact_type":     string(analysis.ContactType),
		},
		Client: client,
	})

	return dto.NewRiskAnalysisResponse(analysis), auditErr
}

func (s *riskService) CreateFactor(ctx context.Context, actor authz.Identity, analysisID uint, req dto.RiskFactorCreateRequest, client ClientInfo) (dto.RiskFactorResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.RiskFactorResponse{}, err
	}

	analysis, err := s.analyses.GetByID(ctx, analysisID)
	if err != nil {
		return dto.RiskFactorResponse{}, notFoundOr(err)
	}
	if _, err := s.authorizeProject(ctx, actor, analysis.ProjectID, authz.RiskWrite); err != nil {
		return dto.RiskFactorResponse{}, err
	}

	s.sanitizer.CleanAll(&req.HazardName, &req.HazardousSituation, &req.SequenceOfEvents,
		&req.Harm, &req.ControlMeasures)

	factor := models.RiskFactor{
		AnalysisID:         analysisID,
		LifecycleStage:     models.LifecycleStage(req.LifecycleStage),
		HazardName:         req.HazardName,
		HazardousSituation: req.HazardousSituation,
		SequenceOfEvents:   req.SequenceOfEvents,
		Harm:               req.Harm,
		HazardCategory:     models.HazardCategory(req.HazardCategory),
		SeverityScore:      req.SeverityScore,
		ProbabilityScore:   req.ProbabilityScore,
		RiskScore:          models.ComputeRiskScore(req.SeverityScore, req.ProbabilityScore),
		ControlMeasures:    req.ControlMeasures,
		ResidualRiskScore:  req.ResidualRiskScore,
	}
	if err := s.factors.Create(ctx, &factor); err != nil {
		return dto.RiskFactorResponse{}, err
	}

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionRiskCreated,
		Description: fmt.Sprintf("Added risk factor %q", factor.HazardName),
		TargetType:  "risk_factor",
		TargetID:    uintRef(factor.ID),
		TargetName:  factor.HazardName,
		ProjectID:   uintRef(analysis.ProjectID),
		NewValues: map[string]interface{}{
			"hazard_name":       factor.HazardName,
			"severity_score":    factor.SeverityScore,
			"probability_score": factor.ProbabilityScore,
			"risk_score":        factor.RiskScore,
		},
		Client: client,
	})

	return dto.NewRiskFactorResponse(factor), auditErr
}

func (s *riskService) UpdateFactor(ctx context.Context, actor authz.Identity, factorID uint, req dto.RiskFactorUpdateRequest, client ClientInfo) (dto.RiskFactorResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.RiskFactorResponse{}, err
	}

	factor, analysis, err := s.loadFactor(ctx, factorID)
	if err != nil {
		return dto.RiskFactorResponse{}, err
	}
	if _, err := s.authorizeProject(ctx, actor, analysis.ProjectID, authz.RiskWrite); err != nil {
		return dto.RiskFactorResponse{}, err
	}

	s.sanitizer.CleanAll(req.HazardName, req.HazardousSituation, req.SequenceOfEvents,
		req.Harm, req.ControlMeasures)

	oldValues := map[string]interface{}{}
	newValues := map[string]interface{}{}

	applyString := func(field string, target *string, incoming *string) {
		if incoming == nil || *incoming == *target {
			return
		}
		oldValues[field] = *target
		newValues[field] = *incoming
		*target = *incoming
	}

	applyString("hazard_name", &factor.HazardName, req.HazardName)
	applyString("hazardous_situation", &factor.HazardousSituation, req.HazardousSituation)
	applyString("sequence_of_events", &factor.SequenceOfEvents, req.SequenceOfEvents)
	applyString("harm", &factor.Harm, req.Harm)
	applyString("control_measures", &factor.ControlMeasures, req.ControlMeasures)

	if req.LifecycleStage != nil && models.LifecycleStage(*req.LifecycleStage) != factor.LifecycleStage {
		oldValues["lifecycle_stage"] = string(factor.LifecycleStage)
		newValues["lifecycle_stage"] = *req.LifecycleStage
		factor.LifecycleStage = models.LifecycleStage(*req.LifecycleStage)
	}
	if req.HazardCategory != nil && models.HazardCategory(*req.HazardCategory) != factor.HazardCategory {
		oldValues["hazard_category"] = string(factor.HazardCategory)
		newValues["hazard_category"] = *req.HazardCategory
		factor.HazardCategory = models.HazardCategory(*req.HazardCategory)
	}
	if req.ResidualRiskScore != nil &&
		(factor.ResidualRiskScore == nil || *req.ResidualRiskScore != *factor.ResidualRiskScore) {
		if factor.ResidualRiskScore != nil {
			oldValues["residual_risk_score"] = *factor.ResidualRiskScore
		}
		newValues["residual_risk_score"] = *req.ResidualRiskScore
		factor.ResidualRiskScore = req.ResidualRiskScore
	}

	scoreChanged := false
	if req.SeverityScore != nil && *req.SeverityScore != factor.SeverityScore {
		oldValues["severity_score"] = factor.SeverityScore
		newValues["severity_score"] = *req.SeverityScore
		factor.SeverityScore = *req.SeverityScore
		scoreChanged = true
	}
	if req.ProbabilityScore != nil && *req.ProbabilityScore != factor.ProbabilityScore {
		oldValues["probability_score"] = factor.ProbabilityScore
		newValues["probability_score"] = *req.ProbabilityScore
		factor.ProbabilityScore = *req.ProbabilityScore
		scoreChanged = true
	}
	if scoreChanged {
		oldValues["risk_score"] = factor.RiskScore
		factor.RiskScore = models.ComputeRiskScore(factor.SeverityScore, factor.ProbabilityScore)
		newValues["risk_score"] = factor.RiskScore
	}

	// Empty change set: no write, no audit entry.
	if len(newValues) == 0 {
		return dto.NewRiskFactorResponse(factor), nil
	}

	if err := s.factors.Update(ctx, &factor); err != nil {
		return dto.RiskFactorResponse{}, err
	}

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionRiskUpdated,
		Description: fmt.Sprintf("Updated risk factor %q", factor.HazardName),
		TargetType:  "risk_factor",
		TargetID:    uintRef(factor.ID),
		TargetName:  factor.HazardName,
		ProjectID:   uintRef(analysis.ProjectID),
		OldValues:   oldValues,
		NewValues:   newValues,
		Client:      client,
	})

	return dto.NewRiskFactorResponse(factor), auditErr
}

func (s *riskService) DeleteFactor(ctx context.Context, actor authz.Identity, factorID uint, client ClientInfo) error {
	factor, analysis, err := s.loadFactor(ctx, factorID)
	if err != nil {
		return err
	}
	if _, err := s.authorizeProject(ctx, actor, analysis.ProjectID, authz.RiskWrite); err != nil {
		return err
	}

	if err := s.factors.Delete(ctx, factorID); err != nil {
		return err
	}

	return s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionRiskDeleted,
		Description: fmt.Sprintf("Deleted risk factor %q", factor.HazardName),
		TargetType:  "risk_factor",
		TargetID:    uintRef(factor.ID),
		TargetName:  factor.HazardName,
		ProjectID:   uintRef(analysis.ProjectID),
		OldValues: map[string]interface{}{
			"hazard_name": factor.HazardName,
			"risk_score":  factor.RiskScore,
		},
		Client: client,
	})
}

// authorizeProject resolves the project and evaluates one action against it.
func (s *riskService) authorizeProject(ctx context.Context, actor authz.Identity, projectID uint, action authz.Action) (models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return models.Project{}, notFoundOr(err)
	}
	snapshot, err := membershipSnapshot(ctx, s.members, project, actor)
	if err != nil {
		return models.Project{}, err
	}
	if err := requireAllowed(actor, snapshot, action); err != nil {
		return models.Project{}, err
	}
	return project, nil
}

func (s *riskService) loadFactor(ctx context.Context, factorID uint) (models.RiskFactor, models.RiskAnalysis, error) {
	factor, err := s.factors.GetByID(ctx, factorID)
	if err != nil {
		return models.RiskFactor{}, models.RiskAnalysis{}, notFoundOr(err)
	}
	analysis, err := s.analyses.GetByID(ctx, factor.AnalysisID)
	if err != nil {
		return models.RiskFactor{}, models.RiskAnalysis{}, notFoundOr(err)
	}
	return factor, analysis, nil
}
