package dto

import (
	"time"

	"github.com/medsafe-labs/riskboard-api/internal/models"
)

// UserResponse serializes a system user.
type UserResponse struct {
	ID         uint       `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	Language   string     `json:"language"`
	Department string     `json:"department,omitempty"`
	Position   string     `json:"position,omitempty"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewUserResponse maps a user model to its response payload.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Role:       string(user.Role),
		IsActive:   user.IsActive,
		Language:   user.Language,
		Department: user.Department,
		Position:   user.Position,
		LastLogin:  user.LastLogin,
		CreatedAt:  user.CreatedAt,
	}
}

// UserListRequest captures query params for listing users.
type UserListRequest struct {
	Page     int
	PageSize int
	Search   string
	Active   *bool
}

// UserListResponse wraps a paginated user listing.
type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// UserProfileUpdateRequest carries the mutable profile fields. Role and
// activation are managed through their own endpoints.
type UserProfileUpdateRequest struct {
	FirstName  *string `json:"first_name" validate:"omitempty,min=1,max=128"`
	LastName   *string `json:"last_name" validate:"omitempty,min=1,max=128"`
	Language   *string `json:"language" validate:"omitempty,oneof=en ru"`
	Department *string `json:"department" validate:"omitempty,max=128"`
	Position   *string `json:"position" validate:"omitempty,max=128"`
}

// UserRoleUpdateRequest changes a user's system role.
type UserRoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=USER SYS_ADMIN"`
}

// UserActivationRequest toggles a user's active flag.
type UserActivationRequest struct {
	Active *bool `json:"active" validate:"required"`
}
