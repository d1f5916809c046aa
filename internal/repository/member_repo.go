package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/models"
)

// MemberRepository persists project memberships.
type MemberRepository interface {
	Get(ctx context.Context, projectID, userID uint) (models.ProjectMember, error)
	List(ctx context.Context, projectID uint) ([]models.ProjectMember, error)
	Add(ctx context.Context, member *models.ProjectMember) error
	UpdateRole(ctx context.Context, projectID, userID uint, role models.ProjectRole) error
	Remove(ctx context.Context, projectID, userID uint) error
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository constructs the membership repository.
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Get(ctx context.Context, projectID, userID uint) (models.ProjectMember, error) {
	var member models.ProjectMember
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	return member, err
}

func (r *memberRepository) List(ctx context.Context, projectID uint) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := r.db.WithContext(ctx).Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *memberRepository) Add(ctx context.Context, member *models.ProjectMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepository) UpdateRole(ctx context.Context, projectID, userID uint, role models.ProjectRole) error {
	return r.db.WithContext(ctx).Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", role).Error
}

func (r *memberRepository) Remove(ctx context.Context, projectID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}
