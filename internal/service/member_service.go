package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/internal/repository"
)

// MemberService manages project memberships.
type MemberService interface {
	List(ctx context.Context, actor authz.Identity, projectID uint) ([]dto.MemberResponse, error)
	Add(ctx context.Context, actor authz.Identity, projectID uint, req dto.MemberAddRequest, client ClientInfo) (dto.MemberResponse, error)
	ChangeRole(ctx context.Context, actor authz.Identity, projectID, userID uint, req dto.MemberRoleUpdateRequest, client ClientInfo) (dto.MemberResponse, error)
	Remove(ctx context.Context, actor authz.Identity, projectID, userID uint, client ClientInfo) error
}

type memberService struct {
	projects  repository.ProjectRepository
	members   repository.MemberRepository
	users     repository.UserRepository
	recorder  ChangeRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMemberService constructs the membership service.
func NewMemberService(
	projects repository.ProjectRepository,
	members repository.MemberRepository,
	users repository.UserRepository,
	recorder ChangeRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) MemberService {
	return &memberService{
		projects:  projects,
		members:   members,
		users:     users,
		recorder:  recorder,
		validator: validate,
		logger:    logger.With().Str("component", "member_service").Logger(),
	}
}

func (s *memberService) List(ctx context.Context, actor authz.Identity, projectID uint) ([]dto.MemberResponse, error) {
	_, snapshot, err := s.loadProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireAllowed(actor, snapshot, authz.ProjectView); err != nil {
		return nil, err
	}

	members, err := s.members.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MemberResponse, 0, len(members))
	for _, member := range members {
		out = append(out, dto.NewMemberResponse(member))
	}
	return out, nil
}

func (s *memberService) Add(ctx context.Context, actor authz.Identity, projectID uint, req dto.MemberAddRequest, client ClientInfo) (dto.MemberResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MemberResponse{}, err
	}

	project, snapshot, err := s.loadProject(ctx, actor, projectID)
	if err != nil {
		return dto.MemberResponse{}, err
	}
	if err := requireAllowed(actor, snapshot, authz.MemberManage); err != nil {
		return dto.MemberResponse{}, err
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return dto.MemberResponse{}, notFoundOr(err)
	}

	// The owner is an implicit admin and never becomes a membership row.
	if user.ID == project.OwnerID {
		return dto.MemberResponse{}, fmt.Errorf("%w: project owner is already an implicit admin", ErrConflict)
	}
	if _, err := s.members.Get(ctx, projectID, user.ID); err == nil {
		return dto.MemberResponse{}, fmt.Errorf("%w: user %d is already a member", ErrConflict, user.ID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.MemberResponse{}, err
	}

	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    user.ID,
		Role:      models.ProjectRole(req.Role),
	}
	if err := s.members.Add(ctx, &member); err != nil {
		return dto.MemberResponse{}, err
	}
	member.User = user

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionMemberAdded,
		Description: fmt.Sprintf("Added %s to project %q as %s", user.FullName(), project.Name, member.Role),
		TargetType:  "project_member",
		TargetID:    uintRef(user.ID),
		TargetName:  user.FullName(),
		ProjectID:   uintRef(projectID),
		NewValues: map[string]interface{}{
			"user_id": user.ID,
			"role":    string(member.Role),
		},
		Client: client,
	})

	return dto.NewMemberResponse(member), auditErr
}

func (s *memberService) ChangeRole(ctx context.Context, actor authz.Identity, projectID, userID uint, req dto.MemberRoleUpdateRequest, client ClientInfo) (dto.MemberResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MemberResponse{}, err
	}

	project, snapshot, err := s.loadProject(ctx, actor, projectID)
	if err != nil {
		return dto.MemberResponse{}, err
	}
	if err := requireAllowed(actor, snapshot, authz.MemberManage); err != nil {
		return dto.MemberResponse{}, err
	}

	member, err := s.members.Get(ctx, projectID, userID)
	if err != nil {
		return dto.MemberResponse{}, notFoundOr(err)
	}

	newRole := models.ProjectRole(req.Role)
	if newRole == member.Role {
		// No-op role change: nothing written, nothing logged.
		return dto.NewMemberResponse(member), nil
	}

	oldRole := member.Role
	if err := s.members.UpdateRole(ctx, projectID, userID, newRole); err != nil {
		return dto.MemberResponse{}, err
	}
	member.Role = newRole

	user, err := s.users.GetByID(ctx, userID)
	if err == nil {
		member.User = user
	}

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionMemberRoleChanged,
		Description: fmt.Sprintf("Changed role of %s in project %q from %s to %s", member.User.FullName(), project.Name, oldRole, newRole),
		TargetType:  "project_member",
		TargetID:    uintRef(userID),
		TargetName:  member.User.FullName(),
		ProjectID:   uintRef(projectID),
		OldValues:   map[string]interface{}{"role": string(oldRole)},
		NewValues:   map[string]interface{}{"role": string(newRole)},
		Client:      client,
	})

	return dto.NewMemberResponse(member), auditErr
}

func (s *memberService) Remove(ctx context.Context, actor authz.Identity, projectID, userID uint, client ClientInfo) error {
	project, snapshot, err := s.loadProject(ctx, actor, projectID)
	if err != nil {
		return err
	}
	if err := requireAllowed(actor, snapshot, authz.MemberManage); err != nil {
		return err
	}

	// Owner removal is never permitted through membership management.
	if userID == project.OwnerID {
		return fmt.Errorf("%w: project owner cannot be removed", ErrConflict)
	}

	member, err := s.members.Get(ctx, projectID, userID)
	if err != nil {
		return notFoundOr(err)
	}

	if err := s.members.Remove(ctx, projectID, userID); err != nil {
		return err
	}

	name := member.User.FullName()
	if name == "" {
		if user, err := s.users.GetByID(ctx, userID); err == nil {
			name = user.FullName()
		}
	}

	return s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionMemberRemoved,
		Description: fmt.Sprintf("Removed %s from project %q", name, project.Name),
		TargetType:  "project_member",
		TargetID:    uintRef(userID),
		TargetName:  name,
		ProjectID:   uintRef(projectID),
		OldValues:   map[string]interface{}{"role": string(member.Role)},
		Client:      client,
	})
}

func (s *memberService) loadProject(ctx context.Context, actor authz.Identity, projectID uint) (models.Project, authz.Membership, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return models.Project{}, authz.Membership{}, notFoundOr(err)
	}
	snapshot, err := membershipSnapshot(ctx, s.members, project, actor)
	if err != nil {
		return models.Project{}, authz.Membership{}, err
	}
	return project, snapshot, nil
}
