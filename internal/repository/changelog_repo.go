package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/models"
)

// ChangelogRepository appends and reads audit entries. There is no update or
// delete: entries are immutable once written.
type ChangelogRepository interface {
	Create(ctx context.Context, entry *models.ChangeLog) error
	GetByID(ctx context.Context, id uint) (models.ChangeLog, error)
	// ListByProject returns a page of entries for one project, newest first,
	// ties broken by id, plus the total entry count.
	ListByProject(ctx context.Context, projectID uint, page, pageSize int) ([]models.ChangeLog, int64, error)
	// RecentByProject returns the newest entries for one project, capped at
	// limit, for the aggregate overview.
	RecentByProject(ctx context.Context, projectID uint, limit int) ([]models.ChangeLog, error)
	CountByProject(ctx context.Context, projectID uint) (int64, error)
}

type changelogRepository struct {
	db *gorm.DB
}

// NewChangelogRepository constructs the changelog repository.
func NewChangelogRepository(db *gorm.DB) ChangelogRepository {
	return &changelogRepository{db: db}
}

func (r *changelogRepository) Create(ctx context.Context, entry *models.ChangeLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *changelogRepository) GetByID(ctx context.Context, id uint) (models.ChangeLog, error) {
	var entry models.ChangeLog
	err := r.db.WithContext(ctx).Preload("User").First(&entry, id).Error
	return entry, err
}

func (r *changelogRepository) ListByProject(ctx context.Context, projectID uint, page, pageSize int) ([]models.ChangeLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ChangeLog{}).
		Where("project_id = ?", projectID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pageSize > 0 {
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var entries []models.ChangeLog
	err := query.Preload("User").
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *changelogRepository) RecentByProject(ctx context.Context, projectID uint, limit int) ([]models.ChangeLog, error) {
	if limit <= 0 {
		limit = 4
	}
	var entries []models.ChangeLog
	err := r.db.WithContext(ctx).Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *changelogRepository) CountByProject(ctx context.Context, projectID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChangeLog{}).
		Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}
