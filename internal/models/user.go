package models

import "time"

// SystemRole is the global privilege level of a user.
type SystemRole string

// System-wide roles. Every user holds exactly one.
const (
	SystemRoleUser     SystemRole = "USER"
	SystemRoleSysAdmin SystemRole = "SYS_ADMIN"
)

// Valid reports whether the role is one of the defined system roles.
func (r SystemRole) Valid() bool {
	return r == SystemRoleUser || r == SystemRoleSysAdmin
}

// User is an authenticated actor. Users referenced by changelog entries are never
// hard-deleted; deactivation flips IsActive instead.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName string     `gorm:"size:128;not null" json:"first_name"`
	LastName  string     `gorm:"size:128;not null" json:"last_name"`
	Role      SystemRole `gorm:"size:32;not null;default:USER" json:"role"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`

	Language   string `gorm:"size:8;default:en" json:"language"`
	Department string `gorm:"size:128" json:"department"`
	Position   string `gorm:"size:128" json:"position"`

	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FullName joins first and last name for display and audit descriptions.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
