package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/internal/observability"
	"github.com/medsafe-labs/riskboard-api/internal/repository"
)

// ClientInfo carries transport metadata attached to audit entries.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// membershipSnapshot builds the authz view of one actor against one project.
// A missing member row is not an error; it resolves to no membership.
func membershipSnapshot(ctx context.Context, members repository.MemberRepository, project models.Project, actor authz.Identity) (authz.Membership, error) {
	snapshot := authz.Membership{OwnerID: project.OwnerID}

	// Owners and system admins never have rows; skip the lookup.
	if actor.SysAdmin() || actor.ID == project.OwnerID {
		return snapshot, nil
	}

	member, err := members.Get(ctx, project.ID, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return snapshot, nil
		}
		return authz.Membership{}, err
	}

	role := member.Role
	snapshot.MemberRole = &role
	return snapshot, nil
}

// requireAllowed evaluates one permission rule, counting denials.
func requireAllowed(actor authz.Identity, m authz.Membership, action authz.Action) error {
	if err := authz.Evaluate(actor, m, action); err != nil {
		observability.PermissionDenials().WithLabelValues(string(action)).Inc()
		return ErrForbidden
	}
	return nil
}

// notFoundOr maps gorm's missing-record error to the service sentinel.
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func uintRef(v uint) *uint {
	return &v
}
