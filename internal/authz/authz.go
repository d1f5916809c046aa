// Package authz is the single place project and system permission rules live.
// Handlers and services never test ownership or membership themselves; they
// resolve the target entity, build a membership snapshot, and ask this package.
package authz

import (
	"errors"

	"github.com/medsafe-labs/riskboard-api/internal/models"
)

// ErrForbidden is returned whenever an identity fails a permission rule. It is
// distinct from a missing entity, which callers must detect before evaluating.
var ErrForbidden = errors.New("forbidden")

// Identity is a request-scoped, read-only view of the authenticated actor.
type Identity struct {
	ID    uint
	Email string
	Role  models.SystemRole
}

// SysAdmin reports whether the identity holds the system administrator role.
func (i Identity) SysAdmin() bool {
	return i.Role == models.SystemRoleSysAdmin
}

// Membership is a snapshot of one identity's relationship to one project:
// the project owner plus the identity's membership row, if any.
type Membership struct {
	OwnerID    uint
	MemberRole *models.ProjectRole
}

// Action tags one operation class on one entity kind. Rules are keyed by
// action so they can never drift apart between handlers.
type Action string

const (
	ProjectView      Action = "project.view"
	ProjectEdit      Action = "project.edit"
	ProjectDelete    Action = "project.delete"
	MemberManage     Action = "project.members"
	RiskWrite        Action = "risk.write"
	ChangelogProject Action = "changelog.project"
)

// effectiveRoleNone marks an identity with no standing on the project.
const effectiveRoleNone models.ProjectRole = ""

// rules maps each action to the project roles allowed to perform it. The
// owner and system administrators are resolved to the admin role before the
// table is consulted, so neither needs a row here.
var rules = map[Action]map[models.ProjectRole]bool{
	ProjectView: {
		models.ProjectRoleAdmin:   true,
		models.ProjectRoleManager: true,
		models.ProjectRoleDoctor:  true,
	},
	ProjectEdit: {
		models.ProjectRoleAdmin:   true,
		models.ProjectRoleManager: true,
	},
	// Stricter than edit: managers may not delete.
	ProjectDelete: {
		models.ProjectRoleAdmin: true,
	},
	MemberManage: {
		models.ProjectRoleAdmin:   true,
		models.ProjectRoleManager: true,
	},
	// Risk editing is a clinical capability, separate from project
	// administration: admins and managers are excluded on purpose.
	RiskWrite: {
		models.ProjectRoleDoctor: true,
	},
	ChangelogProject: {
		models.ProjectRoleAdmin: true,
	},
}

// EffectiveRole resolves the project role an identity is treated as holding:
// system admins and owners are admins, members keep their stored role,
// everyone else has none. Ownership is evaluated per project, never cached.
func EffectiveRole(id Identity, m Membership) models.ProjectRole {
	if id.SysAdmin() || id.ID == m.OwnerID {
		return models.ProjectRoleAdmin
	}
	if m.MemberRole != nil {
		return *m.MemberRole
	}
	return effectiveRoleNone
}

// Allowed reports whether the identity may perform the action on the project
// described by the membership snapshot.
func Allowed(id Identity, m Membership, action Action) bool {
	// The owner and system admins may edit risks even though the admin
	// project role itself is excluded from RiskWrite.
	if action == RiskWrite && (id.SysAdmin() || id.ID == m.OwnerID) {
		return true
	}
	return rules[action][EffectiveRole(id, m)]
}

// Evaluate returns ErrForbidden when the identity may not perform the action.
// Missing-entity checks belong to the caller and must run first.
func Evaluate(id Identity, m Membership, action Action) error {
	if !Allowed(id, m, action) {
		return ErrForbidden
	}
	return nil
}

// CanManageUsers reports whether the identity may manage system users,
// including role elevation. Self role changes are rejected separately by the
// user service regardless of this answer.
func CanManageUsers(id Identity) bool {
	return id.SysAdmin()
}

// CanViewAllChangelogs reports whether the identity may read the aggregate
// changelog across every project.
func CanViewAllChangelogs(id Identity) bool {
	return id.SysAdmin()
}
