package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActionType is the closed set of auditable actions.
type ActionType string

const (
	ActionProjectCreated       ActionType = "project_created"
	ActionProjectUpdated       ActionType = "project_updated"
	ActionProjectDeleted       ActionType = "project_deleted"
	ActionProjectStatusChanged ActionType = "project_status_changed"

	ActionUserAdded          ActionType = "user_added"
	ActionUserRemoved        ActionType = "user_removed"
	ActionUserRoleChanged    ActionType = "user_role_changed"
	ActionUserProfileUpdated ActionType = "user_profile_updated"

	ActionRiskCreated       ActionType = "risk_created"
	ActionRiskUpdated       ActionType = "risk_updated"
	ActionRiskDeleted       ActionType = "risk_deleted"
	ActionRiskStatusChanged ActionType = "risk_status_changed"

	ActionMemberAdded       ActionType = "project_member_added"
	ActionMemberRemoved     ActionType = "project_member_removed"
	ActionMemberRoleChanged ActionType = "project_member_role_changed"

	ActionVersionCreated ActionType = "version_created"
	ActionVersionUpdated ActionType = "version_updated"

	ActionUserLogin    ActionType = "user_login"
	ActionUserLogout   ActionType = "user_logout"
	ActionSystemBackup ActionType = "system_backup"
)

var knownActions = map[ActionType]struct{}{
	ActionProjectCreated: {}, ActionProjectUpdated: {}, ActionProjectDeleted: {},
	ActionProjectStatusChanged: {},
	ActionUserAdded:            {}, ActionUserRemoved: {}, ActionUserRoleChanged: {},
	ActionUserProfileUpdated: {},
	ActionRiskCreated:        {}, ActionRiskUpdated: {}, ActionRiskDeleted: {},
	ActionRiskStatusChanged: {},
	ActionMemberAdded:       {}, ActionMemberRemoved: {}, ActionMemberRoleChanged: {},
	ActionVersionCreated: {}, ActionVersionUpdated: {},
	ActionUserLogin: {}, ActionUserLogout: {}, ActionSystemBackup: {},
}

// Valid reports whether the action is part of the closed enumeration.
func (a ActionType) Valid() bool {
	_, ok := knownActions[a]
	return ok
}

// ChangeLog is one immutable audit entry for a completed mutation. Entries are
// append-only: nothing in the system updates or deletes a row after creation.
// Snapshots are opaque structured maps, serialized to JSON only at the storage
// boundary by the datatypes column type.
type ChangeLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ActionType  ActionType `gorm:"size:64;not null;index" json:"action_type"`
	Description string     `gorm:"type:text;not null" json:"description"`

	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	TargetType string `gorm:"size:64" json:"target_type"`
	TargetID   *uint  `json:"target_id"`
	TargetName string `gorm:"size:255" json:"target_name"`

	ProjectID *uint `gorm:"index" json:"project_id"`

	OldValues datatypes.JSONMap `gorm:"type:json" json:"old_values"`
	NewValues datatypes.JSONMap `gorm:"type:json" json:"new_values"`
	Extra     datatypes.JSONMap `gorm:"type:json" json:"extra"`

	IPAddress string `gorm:"size:64" json:"ip_address"`
	UserAgent string `gorm:"size:255" json:"user_agent"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
