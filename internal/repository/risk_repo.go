package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/models"
)

// RiskAnalysisRepository persists risk analyses.
type RiskAnalysisRepository interface {
	GetByID(ctx context.Context, id uint) (models.RiskAnalysis, error)
	GetWithFactors(ctx context.Context, id uint) (models.RiskAnalysis, error)
	ListByProject(ctx context.Context, projectID uint) ([]models.RiskAnalysis, error)
	Create(ctx context.Context, analysis *models.RiskAnalysis) error
}

type riskAnalysisRepository struct {
	db *gorm.DB
}

// NewRiskAnalysisRepository constructs the risk analysis repository.
func NewRiskAnalysisRepository(db *gorm.DB) RiskAnalysisRepository {
	return &riskAnalysisRepository{db: db}
}

func (r *riskAnalysisRepository) GetByID(ctx context.Context, id uint) (models.RiskAnalysis, error) {
	var analysis models.RiskAnalysis
	err := r.db.WithContext(ctx).First(&analysis, id).Error
	return analysis, err
}

func (r *riskAnalysisRepository) GetWithFactors(ctx context.Context, id uint) (models.RiskAnalysis, error) {
	var analysis models.RiskAnalysis
	err := r.db.WithContext(ctx).
		Preload("Factors", func(db *gorm.DB) *gorm.DB {
			return db.Order("risk_factors.risk_score DESC")
		}).
		First(&analysis, id).Error
	return analysis, err
}

func (r *riskAnalysisRepository) ListByProject(ctx context.Context, projectID uint) ([]models.RiskAnalysis, error) {
	var analyses []models.RiskAnalysis
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&analyses).Error
	return analyses, err
}

func (r *riskAnalysisRepository) Create(ctx context.Context, analysis *models.RiskAnalysis) error {
	return r.db.WithContext(ctx).Create(analysis).Error
}

// RiskFactorRepository persists individual risk factors.
type RiskFactorRepository interface {
	GetByID(ctx context.Context, id uint) (models.RiskFactor, error)
	Create(ctx context.Context, factor *models.RiskFactor) error
	Update(ctx context.Context, factor *models.RiskFactor) error
	Delete(ctx context.Context, id uint) error
}

type riskFactorRepository struct {
	db *gorm.DB
}

// NewRiskFactorRepository constructs the risk factor repository.
func NewRiskFactorRepository(db *gorm.DB) RiskFactorRepository {
	return &riskFactorRepository{db: db}
}

func (r *riskFactorRepository) GetByID(ctx context.Context, id uint) (models.RiskFactor, error) {
	var factor models.RiskFactor
	err := r.db.WithContext(ctx).First(&factor, id).Error
	return factor, err
}

func (r *riskFactorRepository) Create(ctx context.Context, factor *models.RiskFactor) error {
	return r.db.WithContext(ctx).Create(factor).Error
}

func (r *riskFactorRepository) Update(ctx context.Context, factor *models.RiskFactor) error {
	return r.db.WithContext(ctx).Save(factor).Error
}

func (r *riskFactorRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.RiskFactor{}, id).Error
}
