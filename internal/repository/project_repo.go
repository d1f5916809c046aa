package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/models"
)

// ProjectFilter narrows project listing queries. When AccessibleTo is set the
// result is restricted to projects the user owns or is a member of.
type ProjectFilter struct {
	Page         int
	PageSize     int
	Status       models.ProjectStatus
	AccessibleTo *uint
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uint) (models.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uint) error
	CountMembers(ctx context.Context, projectID uint) (int64, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository constructs the project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).First(&project, id).Error
	return project, err
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{})

	if filter.AccessibleTo != nil {
		uid := *filter.AccessibleTo
		query = query.
			Joins("LEFT JOIN project_members ON project_members.project_id = projects.id AND project_members.user_id = ?", uid).
			Where("projects.owner_id = ? OR project_members.user_id = ?", uid, uid).
			Distinct("projects.*")
	}
	if filter.Status != "" {
		query = query.Where("projects.status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var projects []models.Project
	if err := query.Order("projects.updated_at DESC").Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

// Delete removes the project with its memberships, versions and analyses in
// one transaction. Changelog rows are kept on purpose.
func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectVersion{}).Error; err != nil {
			return err
		}
		var analysisIDs []uint
		if err := tx.Model(&models.RiskAnalysis{}).Where("project_id = ?", id).
			Pluck("id", &analysisIDs).Error; err != nil {
			return err
		}
		if len(analysisIDs) > 0 {
			if err := tx.Where("analysis_id IN ?", analysisIDs).Delete(&models.RiskFactor{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", id).Delete(&models.RiskAnalysis{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Project{}, id).Error
	})
}

func (r *projectRepository) CountMembers(ctx context.Context, projectID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProjectMember{}).
		Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}
