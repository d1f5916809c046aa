package dto

import (
	"time"

	"github.com/medsafe-labs/riskboard-api/internal/models"
)

// ChangeLogResponse serializes one audit entry for list views.
type ChangeLogResponse struct {
	ID          uint      `json:"id"`
	ActionType  string    `json:"action_type"`
	Description string    `json:"description"`
	UserID      uint      `json:"user_id"`
	UserName    string    `json:"user_name,omitempty"`
	TargetType  string    `json:"target_type,omitempty"`
	TargetID    *uint     `json:"target_id,omitempty"`
	TargetName  string    `json:"target_name,omitempty"`
	ProjectID   *uint     `json:"project_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewChangeLogResponse maps a changelog model to its list payload.
func NewChangeLogResponse(entry models.ChangeLog) ChangeLogResponse {
	return ChangeLogResponse{
		ID:          entry.ID,
		ActionType:  string(entry.ActionType),
		Description: entry.Description,
		UserID:      entry.UserID,
		UserName:    entry.User.FullName(),
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		TargetName:  entry.TargetName,
		ProjectID:   entry.ProjectID,
		CreatedAt:   entry.CreatedAt,
	}
}

// ChangeLogDetailResponse adds the full snapshots to one entry.
type ChangeLogDetailResponse struct {
	ChangeLogResponse
	OldValues map[string]interface{} `json:"old_values,omitempty"`
	NewValues map[string]interface{} `json:"new_values,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
}

// NewChangeLogDetailResponse maps a changelog model with snapshots.
func NewChangeLogDetailResponse(entry models.ChangeLog) ChangeLogDetailResponse {
	return ChangeLogDetailResponse{
		ChangeLogResponse: NewChangeLogResponse(entry),
		OldValues:         entry.OldValues,
		NewValues:         entry.NewValues,
		Extra:             entry.Extra,
		IPAddress:         entry.IPAddress,
		UserAgent:         entry.UserAgent,
	}
}

// ChangeLogListResponse wraps one project's paginated changelog.
type ChangeLogListResponse struct {
	Items      []ChangeLogResponse `json:"items"`
	Pagination PaginationMeta      `json:"pagination"`
}

// ProjectChangelogSummary is one project's slice of the aggregate overview.
type ProjectChangelogSummary struct {
	ProjectID     uint                `json:"project_id"`
	ProjectName   string              `json:"project_name"`
	ProjectStatus string              `json:"project_status"`
	MemberCount   int64               `json:"member_count"`
	TotalChanges  int64               `json:"total_changes"`
	LastUpdated   time.Time           `json:"last_updated"`
	RecentChanges []ChangeLogResponse `json:"recent_changes"`
}

// ChangelogOverviewResponse is the aggregate across all projects.
type ChangelogOverviewResponse struct {
	Projects      []ProjectChangelogSummary `json:"projects"`
	TotalProjects int                       `json:"total_projects"`
}
