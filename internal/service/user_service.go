package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/internal/observability"
	"github.com/medsafe-labs/riskboard-api/internal/repository"
)

// UserService manages system users. Listing and role/activation changes are
// system-admin operations; profiles are editable by their owner.
type UserService interface {
	List(ctx context.Context, actor authz.Identity, req dto.UserListRequest) (dto.UserListResponse, error)
	Get(ctx context.Context, actor authz.Identity, userID uint) (dto.UserResponse, error)
	UpdateProfile(ctx context.Context, actor authz.Identity, userID uint, req dto.UserProfileUpdateRequest, client ClientInfo) (dto.UserResponse, error)
	ChangeRole(ctx context.Context, actor authz.Identity, userID uint, req dto.UserRoleUpdateRequest, client ClientInfo) (dto.UserResponse, error)
	SetActive(ctx context.Context, actor authz.Identity, userID uint, req dto.UserActivationRequest, client ClientInfo) (dto.UserResponse, error)
}

type userService struct {
	users     repository.UserRepository
	recorder  ChangeRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserService constructs the user service.
func NewUserService(users repository.UserRepository, recorder ChangeRecorder, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		recorder:  recorder,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, actor authz.Identity, req dto.UserListRequest) (dto.UserListResponse, error) {
	if !authz.CanManageUsers(actor) {
		observability.PermissionDenials().WithLabelValues("users.list").Inc()
		return dto.UserListResponse{}, ErrForbidden
	}

	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	users, total, err := s.users.List(ctx, repository.UserFilter{
		Page:     req.Page,
		PageSize: pageSize,
		Search:   req.Search,
		Active:   req.Active,
	})
	if err != nil {
		return dto.UserListResponse{}, err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, dto.NewUserResponse(user))
	}
	return dto.UserListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(req.Page, pageSize, total),
	}, nil
}

func (s *userService) Get(ctx context.Context, actor authz.Identity, userID uint) (dto.UserResponse, error) {
	if userID != actor.ID && !authz.CanManageUsers(actor) {
		observability.PermissionDenials().WithLabelValues("users.get").Inc()
		return dto.UserResponse{}, ErrForbidden
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, notFoundOr(err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor authz.Identity, userID uint, req dto.UserProfileUpdateRequest, client ClientInfo) (dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}
	if userID != actor.ID && !authz.CanManageUsers(actor) {
		observability.PermissionDenials().WithLabelValues("users.update").Inc()
		return dto.UserResponse{}, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, notFoundOr(err)
	}

	oldValues := map[string]interface{}{}
	newValues := map[string]interface{}{}

	applyString := func(field string, target *string, incoming *string) {
		if incoming == nil || *incoming == *target {
			return
		}
		oldValues[field] = *target
		newValues[field] = *incoming
		*target = *incoming
	}

	applyString("first_name", &user.FirstName, req.FirstName)
	applyString("last_name", &user.LastName, req.LastName)
	applyString("language", &user.Language, req.Language)
	applyString("department", &user.Department, req.Department)
	applyString("position", &user.Position, req.Position)

	if len(newValues) == 0 {
		return dto.NewUserResponse(user), nil
	}

	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionUserProfileUpdated,
		Description: fmt.Sprintf("Updated profile of %s", user.FullName()),
		TargetType:  "user",
		TargetID:    uintRef(user.ID),
		TargetName:  user.FullName(),
		OldValues:   oldValues,
		NewValues:   newValues,
		Client:      client,
	})

	return dto.NewUserResponse(user), auditErr
}

func (s *userService) ChangeRole(ctx context.Context, actor authz.Identity, userID uint, req dto.UserRoleUpdateRequest, client ClientInfo) (dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}
	if !authz.CanManageUsers(actor) {
		observability.PermissionDenials().WithLabelValues("users.role").Inc()
		return dto.UserResponse{}, ErrForbidden
	}
	// Nobody may change their own system role, not even a sys admin.
	if userID == actor.ID {
		observability.PermissionDenials().WithLabelValues("users.role").Inc()
		return dto.UserResponse{}, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, notFoundOr(err)
	}

	newRole := models.SystemRole(req.Role)
	if newRole == user.Role {
		return dto.NewUserResponse(user), nil
	}

	oldRole := user.Role
	if err := s.users.SetRole(ctx, userID, newRole); err != nil {
		return dto.UserResponse{}, err
	}
	user.Role = newRole

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionUserRoleChanged,
		Description: fmt.Sprintf("Changed system role of %s from %s to %s", user.FullName(), oldRole, newRole),
		TargetType:  "user",
		TargetID:    uintRef(user.ID),
		TargetName:  user.FullName(),
		OldValues:   map[string]interface{}{"role": string(oldRole)},
		NewValues:   map[string]interface{}{"role": string(newRole)},
		Client:      client,
	})

	return dto.NewUserResponse(user), auditErr
}

func (s *userService) SetActive(ctx context.Context, actor authz.Identity, userID uint, req dto.UserActivationRequest, client ClientInfo) (dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}
	if !authz.CanManageUsers(actor) || userID == actor.ID {
		observability.PermissionDenials().WithLabelValues("users.activation").Inc()
		return dto.UserResponse{}, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, notFoundOr(err)
	}

	active := *req.Active
	if active == user.IsActive {
		return dto.NewUserResponse(user), nil
	}

	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return dto.UserResponse{}, err
	}
	user.IsActive = active

	action := models.ActionUserAdded
	description := fmt.Sprintf("Activated user %s", user.FullName())
	if !active {
		// Users are never hard-deleted while audit entries reference them.
		action = models.ActionUserRemoved
		description = fmt.Sprintf("Deactivated user %s", user.FullName())
	}

	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      action,
		Description: description,
		TargetType:  "user",
		TargetID:    uintRef(user.ID),
		TargetName:  user.FullName(),
		OldValues:   map[string]interface{}{"is_active": !active},
		NewValues:   map[string]interface{}{"is_active": active},
		Client:      client,
	})

	return dto.NewUserResponse(user), auditErr
}
