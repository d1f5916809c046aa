package dto

// LoginRequest carries the externally-verified identity profile. Credential
// verification happens upstream; this API only maps the profile to a user and
// issues a session token.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,min=1,max=128"`
	LastName  string `json:"last_name" validate:"required,min=1,max=128"`
	Language  string `json:"language" validate:"omitempty,oneof=en ru"`
}

// LoginResponse returns the issued token and the resolved user.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
	User      UserResponse `json:"user"`
}
