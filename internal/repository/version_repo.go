package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/models"
)

// VersionRepository persists project versions.
type VersionRepository interface {
	GetByID(ctx context.Context, id uint) (models.ProjectVersion, error)
	GetByLabel(ctx context.Context, projectID uint, label string) (models.ProjectVersion, error)
	List(ctx context.Context, projectID uint) ([]models.ProjectVersion, error)
	Create(ctx context.Context, version *models.ProjectVersion) error
	Update(ctx context.Context, version *models.ProjectVersion) error
	// MarkCurrent flags one version as current and clears the flag on every
	// other version of the project in the same transaction.
	MarkCurrent(ctx context.Context, projectID, versionID uint) error
}

type versionRepository struct {
	db *gorm.DB
}

// NewVersionRepository constructs the version repository.
func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &versionRepository{db: db}
}

func (r *versionRepository) GetByID(ctx context.Context, id uint) (models.ProjectVersion, error) {
	var version models.ProjectVersion
	err := r.db.WithContext(ctx).First(&version, id).Error
	return version, err
}

func (r *versionRepository) GetByLabel(ctx context.Context, projectID uint, label string) (models.ProjectVersion, error) {
	var version models.ProjectVersion
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND label = ?", projectID, label).
		First(&version).Error
	return version, err
}

func (r *versionRepository) List(ctx context.Context, projectID uint) ([]models.ProjectVersion, error) {
	var versions []models.ProjectVersion
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&versions).Error
	return versions, err
}

func (r *versionRepository) Create(ctx context.Context, version *models.ProjectVersion) error {
	return r.db.WithContext(ctx).Create(version).Error
}

func (r *versionRepository) Update(ctx context.Context, version *models.ProjectVersion) error {
	return r.db.WithContext(ctx).Save(version).Error
}

func (r *versionRepository) MarkCurrent(ctx context.Context, projectID, versionID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProjectVersion{}).
			Where("project_id = ? AND id <> ?", projectID, versionID).
			Update("is_current", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.ProjectVersion{}).
			Where("id = ?", versionID).
			Update("is_current", true).Error
	})
}
