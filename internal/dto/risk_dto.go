package dto

import (
	"time"

	"github.com/medsafe-labs/riskboard-api/internal/models"
)

// RiskAnalysisResponse serializes a risk analysis.
type RiskAnalysisResponse struct {
	ID             uint      `json:"id"`
	ProjectID      uint      `json:"project_id"`
	AnalystID      uint      `json:"analyst_id"`
	HasBodyContact bool      `json:"has_body_contact"`
	ContactType    string    `json:"contact_type"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewRiskAnalysisResponse maps an analysis model to its response payload.
func NewRiskAnalysisResponse(analysis models.RiskAnalysis) RiskAnalysisResponse {
	return RiskAnalysisResponse{
		ID:             analysis.ID,
		ProjectID:      analysis.ProjectID,
		AnalystID:      analysis.AnalystID,
		HasBodyContact: analysis.HasBodyContact,
		ContactType:    string(analysis.ContactType),
		CreatedAt:      analysis.CreatedAt,
		UpdatedAt:      analysis.UpdatedAt,
	}
}

// RiskSummary counts factors per risk band.
type RiskSummary struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// RiskAnalysisDetailResponse bundles an analysis with its factors and band
// summary.
type RiskAnalysisDetailResponse struct {
	RiskAnalysisResponse
	Factors []RiskFactorResponse `json:"factors"`
	Summary RiskSummary          `json:"summary"`
}

// RiskAnalysisCreateRequest creates an analysis for a project.
type RiskAnalysisCreateRequest struct {
	HasBodyContact bool   `json:"has_body_contact"`
	ContactType    string `json:"contact_type" validate:"omitempty,oneof=no_contact surface invasive"`
}

// RiskFactorResponse serializes a risk factor.
type RiskFactorResponse struct {
	ID                 uint      `json:"id"`
	AnalysisID         uint      `json:"analysis_id"`
	LifecycleStage     string    `json:"lifecycle_stage"`
	HazardName         string    `json:"hazard_name"`
	HazardousSituation string    `json:"hazardous_situation"`
	SequenceOfEvents   string    `json:"sequence_of_events"`
	Harm               string    `json:"harm"`
	HazardCategory     string    `json:"hazard_category"`
	SeverityScore      int       `json:"severity_score"`
	ProbabilityScore   int       `json:"probability_score"`
	RiskScore          int       `json:"risk_score"`
	RiskBand           string    `json:"risk_band"`
	ControlMeasures    string    `json:"control_measures,omitempty"`
	ResidualRiskScore  *int      `json:"residual_risk_score,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewRiskFactorResponse maps a factor model to its response payload.
func NewRiskFactorResponse(factor models.RiskFactor) RiskFactorResponse {
	return RiskFactorResponse{
		ID:                 factor.ID,
		AnalysisID:         factor.AnalysisID,
		LifecycleStage:     string(factor.LifecycleStage),
		HazardName:         factor.HazardName,
		HazardousSituation: factor.HazardousSituation,
		SequenceOfEvents:   factor.SequenceOfEvents,
		Harm:               factor.Harm,
		HazardCategory:     string(factor.HazardCategory),
		SeverityScore:      factor.SeverityScore,
		ProbabilityScore:   factor.ProbabilityScore,
		RiskScore:          factor.RiskScore,
		RiskBand:           models.RiskBand(factor.RiskScore),
		ControlMeasures:    factor.ControlMeasures,
		ResidualRiskScore:  factor.ResidualRiskScore,
		CreatedAt:          factor.CreatedAt,
		UpdatedAt:          factor.UpdatedAt,
	}
}

// RiskFactorCreateRequest creates a factor inside an analysis.
type RiskFactorCreateRequest struct {
	LifecycleStage     string `json:"lifecycle_stage" validate:"required,oneof=operation maintenance storage transport disposal"`
	HazardName         string `json:"hazard_name" validate:"required,min=1,max=255"`
	HazardousSituation string `json:"hazardous_situation" validate:"required"`
	SequenceOfEvents   string `json:"sequence_of_events" validate:"required"`
	Harm               string `json:"harm" validate:"required"`
	HazardCategory     string `json:"hazard_category" validate:"required,oneof=biological_chemical operational_informational software energy_functional"`
	SeverityScore      int    `json:"severity_score" validate:"required,min=1,max=5"`
	ProbabilityScore   int    `json:"probability_score" validate:"required,min=1,max=5"`
	ControlMeasures    string `json:"control_measures"`
	ResidualRiskScore  *int   `json:"residual_risk_score" validate:"omitempty,min=1,max=25"`
}

// RiskFactorUpdateRequest updates a factor. Nil pointers leave fields
// untouched; the service recomputes the risk score when either score moves.
type RiskFactorUpdateRequest struct {
	LifecycleStage     *string `json:"lifecycle_stage" validate:"omitempty,oneof=operation maintenance storage transport disposal"`
	HazardName         *string `json:"hazard_name" validate:"omitempty,min=1,max=255"`
	HazardousSituation *string `json:"hazardous_situation" validate:"omitempty"`
	SequenceOfEvents   *string `json:"sequence_of_events" validate:"omitempty"`
	Harm               *string `json:"harm" validate:"omitempty"`
	HazardCategory     *string `json:"hazard_category" validate:"omitempty,oneof=biological_chemical operational_informational software energy_functional"`
	SeverityScore      *int    `json:"severity_score" validate:"omitempty,min=1,max=5"`
	ProbabilityScore   *int    `json:"probability_score" validate:"omitempty,min=1,max=5"`
	ControlMeasures    *string `json:"control_measures"`
	ResidualRiskScore  *int    `json:"residual_risk_score" validate:"omitempty,min=1,max=25"`
}
