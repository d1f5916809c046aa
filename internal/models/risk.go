package models

import "time"

// LifecycleStage identifies where in the device lifecycle a hazard applies.
type LifecycleStage string

const (
	LifecycleOperation   LifecycleStage = "operation"
	LifecycleMaintenance LifecycleStage = "maintenance"
	LifecycleStorage     LifecycleStage = "storage"
	LifecycleTransport   LifecycleStage = "transport"
	LifecycleDisposal    LifecycleStage = "disposal"
)

// HazardCategory groups related hazard types.
type HazardCategory string

const (
	HazardBiologicalChemical       HazardCategory = "biological_chemical"
	HazardOperationalInformational HazardCategory = "operational_informational"
	HazardSoftware                 HazardCategory = "software"
	HazardEnergyFunctional         HazardCategory = "energy_functional"
)

// ContactType describes how the device contacts the human body.
type ContactType string

const (
	ContactNone     ContactType = "no_contact"
	ContactSurface  ContactType = "surface"
	ContactInvasive ContactType = "invasive"
)

// RiskAnalysis is one analysis session for a project.
type RiskAnalysis struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	ProjectID      uint        `gorm:"not null;index" json:"project_id"`
	AnalystID      uint        `gorm:"not null" json:"analyst_id"`
	HasBodyContact bool        `gorm:"not null;default:false" json:"has_body_contact"`
	ContactType    ContactType `gorm:"size:32;not null;default:no_contact" json:"contact_type"`

	Factors []RiskFactor `gorm:"foreignKey:AnalysisID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Score bounds for severity and probability.
const (
	ScoreMin = 1
	ScoreMax = 5
)

// RiskFactor is a single identified hazard with its scoring. RiskScore is
// always SeverityScore * ProbabilityScore and is recomputed whenever either
// input changes.
type RiskFactor struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	AnalysisID uint `gorm:"not null;index" json:"analysis_id"`

	LifecycleStage     LifecycleStage `gorm:"size:32;not null" json:"lifecycle_stage"`
	HazardName         string         `gorm:"size:255;not null" json:"hazard_name"`
	HazardousSituation string         `gorm:"type:text;not null" json:"hazardous_situation"`
	SequenceOfEvents   string         `gorm:"type:text;not null" json:"sequence_of_events"`
	Harm               string         `gorm:"type:text;not null" json:"harm"`
	HazardCategory     HazardCategory `gorm:"size:48;not null" json:"hazard_category"`

	SeverityScore    int `gorm:"not null" json:"severity_score"`
	ProbabilityScore int `gorm:"not null" json:"probability_score"`
	RiskScore        int `gorm:"not null" json:"risk_score"`

	ControlMeasures   string `gorm:"type:text" json:"control_measures"`
	ResidualRiskScore *int   `json:"residual_risk_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeRiskScore derives the risk score from severity and probability.
func ComputeRiskScore(severity, probability int) int {
	return severity * probability
}

// Risk score bands used in analysis summaries.
const (
	riskHighThreshold   = 15
	riskMediumThreshold = 10
)

// RiskBand classifies a risk score into low/medium/high.
func RiskBand(score int) string {
	switch {
	case score >= riskHighThreshold:
		return "high"
	case score >= riskMediumThreshold:
		return "medium"
	default:
		return "low"
	}
}
