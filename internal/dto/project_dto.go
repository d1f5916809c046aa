package dto

import (
	"time"

	"github.com/medsafe-labs/riskboard-api/internal/models"
)

// ProjectResponse serializes a project.
type ProjectResponse struct {
	ID                   uint      `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description,omitempty"`
	Status               string    `json:"status"`
	Progress             float64   `json:"progress"`
	DeviceName           string    `json:"device_name"`
	DeviceModel          string    `json:"device_model,omitempty"`
	DevicePurpose        string    `json:"device_purpose,omitempty"`
	DeviceClassification string    `json:"device_classification,omitempty"`
	IntendedUse          string    `json:"intended_use,omitempty"`
	OwnerID              uint      `json:"owner_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewProjectResponse maps a project model to its response payload.
func NewProjectResponse(project models.Project) ProjectResponse {
	return ProjectResponse{
		ID:                   project.ID,
		Name:                 project.Name,
		Description:          project.Description,
		Status:               string(project.Status),
		Progress:             project.Progress,
		DeviceName:           project.DeviceName,
		DeviceModel:          project.DeviceModel,
		DevicePurpose:        project.DevicePurpose,
		DeviceClassification: project.DeviceClassification,
		IntendedUse:          project.IntendedUse,
		OwnerID:              project.OwnerID,
		CreatedAt:            project.CreatedAt,
		UpdatedAt:            project.UpdatedAt,
	}
}

// ProjectListItem adds per-caller context to a listed project.
type ProjectListItem struct {
	ProjectResponse
	MemberCount   int64  `json:"member_count"`
	EffectiveRole string `json:"effective_role,omitempty"`
}

// ProjectListRequest captures query params for listing projects.
type ProjectListRequest struct {
	Page     int
	PageSize int
	Status   string
}

// ProjectListResponse wraps a paginated project listing.
type ProjectListResponse struct {
	Items      []ProjectListItem `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// ProjectCreateRequest carries the fields for creating a project.
type ProjectCreateRequest struct {
	Name                 string `json:"name" validate:"required,min=1,max=255"`
	Description          string `json:"description" validate:"max=4000"`
	DeviceName           string `json:"device_name" validate:"required,min=1,max=255"`
	DeviceModel          string `json:"device_model" validate:"max=255"`
	DevicePurpose        string `json:"device_purpose" validate:"max=4000"`
	DeviceClassification string `json:"device_classification" validate:"max=128"`
	IntendedUse          string `json:"intended_use" validate:"max=4000"`
}

// ProjectUpdateRequest carries the mutable project fields. Nil pointers mean
// the field is untouched; the service diffs against the stored row.
type ProjectUpdateRequest struct {
	Name                 *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Description          *string  `json:"description" validate:"omitempty,max=4000"`
	Status               *string  `json:"status" validate:"omitempty,oneof=draft in_progress review completed archived"`
	Progress             *float64 `json:"progress" validate:"omitempty,gte=0,lte=100"`
	DeviceName           *string  `json:"device_name" validate:"omitempty,min=1,max=255"`
	DeviceModel          *string  `json:"device_model" validate:"omitempty,max=255"`
	DevicePurpose        *string  `json:"device_purpose" validate:"omitempty,max=4000"`
	DeviceClassification *string  `json:"device_classification" validate:"omitempty,max=128"`
	IntendedUse          *string  `json:"intended_use" validate:"omitempty,max=4000"`
}

// MemberResponse serializes one project membership.
type MemberResponse struct {
	ProjectID uint      `json:"project_id"`
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// NewMemberResponse maps a membership model to its response payload.
func NewMemberResponse(member models.ProjectMember) MemberResponse {
	return MemberResponse{
		ProjectID: member.ProjectID,
		UserID:    member.UserID,
		Email:     member.User.Email,
		Name:      member.User.FullName(),
		Role:      string(member.Role),
		JoinedAt:  member.JoinedAt,
	}
}

// MemberAddRequest adds a user to a project.
type MemberAddRequest struct {
	UserID uint   `json:"user_id" validate:"required,gt=0"`
	Role   string `json:"role" validate:"required,oneof=admin manager doctor"`
}

// MemberRoleUpdateRequest changes a member's project role.
type MemberRoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager doctor"`
}

// VersionResponse serializes a project version.
type VersionResponse struct {
	ID          uint      `json:"id"`
	ProjectID   uint      `json:"project_id"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	IsCurrent   bool      `json:"is_current"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewVersionResponse maps a version model to its response payload.
func NewVersionResponse(version models.ProjectVersion) VersionResponse {
	return VersionResponse{
		ID:          version.ID,
		ProjectID:   version.ProjectID,
		Label:       version.Label,
		Description: version.Description,
		IsCurrent:   version.IsCurrent,
		CreatedAt:   version.CreatedAt,
	}
}

// VersionCreateRequest creates a project version.
type VersionCreateRequest struct {
	Label       string `json:"label" validate:"required,min=1,max=64"`
	Description string `json:"description" validate:"max=4000"`
	IsCurrent   bool   `json:"is_current"`
}

// VersionUpdateRequest updates a project version.
type VersionUpdateRequest struct {
	Description *string `json:"description" validate:"omitempty,max=4000"`
	IsCurrent   *bool   `json:"is_current"`
}
