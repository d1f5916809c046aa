package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/medsafe-labs/riskboard-api/internal/authz"
	"github.com/medsafe-labs/riskboard-api/internal/dto"
	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/internal/repository"
)

// AuthService maps externally-verified identity profiles to users and manages
// sessions. It performs no credential verification itself; the upstream
// identity provider is trusted completely.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest, client ClientInfo) (dto.LoginResponse, error)
	Logout(ctx context.Context, actor authz.Identity, sessionID string, client ClientInfo) error
}

type authService struct {
	users     repository.UserRepository
	sessions  SessionStore
	recorder  ChangeRecorder
	validator *validator.Validate
	secret    string
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewAuthService constructs the auth service.
func NewAuthService(
	users repository.UserRepository,
	sessions SessionStore,
	recorder ChangeRecorder,
	validate *validator.Validate,
	secret string,
	ttl time.Duration,
	logger zerolog.Logger,
) AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &authService{
		users:     users,
		sessions:  sessions,
		recorder:  recorder,
		validator: validate,
		secret:    secret,
		ttl:       ttl,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, client ClientInfo) (dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if !user.IsActive {
			return dto.LoginResponse{}, fmt.Errorf("%w: account is deactivated", ErrForbidden)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// First successful external authentication creates the user.
		user = models.User{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      models.SystemRoleUser,
			IsActive:  true,
			Language:  req.Language,
		}
		if user.Language == "" {
			user.Language = "en"
		}
		if err := s.users.Create(ctx, &user); err != nil {
			return dto.LoginResponse{}, err
		}
	default:
		return dto.LoginResponse{}, err
	}

	now := time.Now()
	session := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return dto.LoginResponse{}, err
	}

	token, err := s.mintToken(user, session)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record last login")
	}
	user.LastLogin = &now

	actor := authz.Identity{ID: user.ID, Email: user.Email, Role: user.Role}
	auditErr := s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionUserLogin,
		Description: fmt.Sprintf("%s signed in", user.FullName()),
		TargetType:  "user",
		TargetID:    &user.ID,
		TargetName:  user.FullName(),
		Client:      client,
	})

	return dto.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.ttl.Seconds()),
		User:      dto.NewUserResponse(user),
	}, auditErr
}

func (s *authService) Logout(ctx context.Context, actor authz.Identity, sessionID string, client ClientInfo) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}

	return s.recorder.Record(ctx, ChangeEntry{
		Actor:       actor,
		Action:      models.ActionUserLogout,
		Description: fmt.Sprintf("%s signed out", actor.Email),
		TargetType:  "user",
		TargetID:    &actor.ID,
		TargetName:  actor.Email,
		Client:      client,
	})
}

func (s *authService) mintToken(user models.User, session Session) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"sid":   session.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   jwt.NewNumericDate(time.Now()),
		"exp":   jwt.NewNumericDate(session.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
