package models

import "time"

// ProjectRole is the per-project privilege level held via membership.
type ProjectRole string

// Project-level roles. The owner is treated as an implicit admin and never
// appears in the membership table.
const (
	ProjectRoleAdmin   ProjectRole = "admin"
	ProjectRoleManager ProjectRole = "manager"
	ProjectRoleDoctor  ProjectRole = "doctor"
)

// Valid reports whether the role is one of the defined project roles.
func (r ProjectRole) Valid() bool {
	switch r {
	case ProjectRoleAdmin, ProjectRoleManager, ProjectRoleDoctor:
		return true
	}
	return false
}

// ProjectStatus tracks the lifecycle of a risk-analysis project.
type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusReview     ProjectStatus = "review"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusArchived   ProjectStatus = "archived"
)

// Valid reports whether the status is one of the defined project statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusInProgress, ProjectStatusReview,
		ProjectStatusCompleted, ProjectStatusArchived:
		return true
	}
	return false
}

// Project is a medical-device risk-analysis project.
type Project struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"size:255;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Status      ProjectStatus `gorm:"size:32;not null;default:draft" json:"status"`
	Progress    float64       `gorm:"not null;default:0" json:"progress"`

	DeviceName           string `gorm:"size:255;not null" json:"device_name"`
	DeviceModel          string `gorm:"size:255" json:"device_model"`
	DevicePurpose        string `gorm:"type:text" json:"device_purpose"`
	DeviceClassification string `gorm:"size:128" json:"device_classification"`
	IntendedUse          string `gorm:"type:text" json:"intended_use"`

	OwnerID uint `gorm:"not null;index" json:"owner_id"`
	Owner   User `gorm:"foreignKey:OwnerID" json:"-"`

	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectMember grants a user a role inside one project. The (project, user)
// pair is unique and the project owner is never duplicated into this table.
type ProjectMember struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ProjectID uint        `gorm:"not null;uniqueIndex:idx_project_user" json:"project_id"`
	UserID    uint        `gorm:"not null;uniqueIndex:idx_project_user" json:"user_id"`
	Role      ProjectRole `gorm:"size:32;not null;default:doctor" json:"role"`
	JoinedAt  time.Time   `gorm:"autoCreateTime" json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// ProjectVersion labels a point-in-time revision of a project. Labels are
// unique per project.
type ProjectVersion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `gorm:"not null;uniqueIndex:idx_project_version" json:"project_id"`
	Label       string    `gorm:"size:64;not null;uniqueIndex:idx_project_version" json:"label"`
	Description string    `gorm:"type:text" json:"description"`
	IsCurrent   bool      `gorm:"not null;default:false" json:"is_current"`
	CreatedAt   time.Time `json:"created_at"`
}
