package user

import (
	"time"

	"github.com/nekogravitycat/slot-swap-backend/internal/pkg/apperror"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

var (
	ErrNotFound           = apperror.NotFound("user not found")
	ErrEmailAlreadyUsed   = apperror.Conflict("email already used")
	ErrInvalidCredentials = apperror.Validation("invalid email or password")
	ErrInactiveUser       = apperror.Forbidden("user is inactive")
	ErrEmailRequired      = apperror.Validation("email is required")
	ErrPasswordTooShort   = apperror.Validation("password must be at least %d characters", MinPasswordLength)
)

// User represents a user in the system.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  *string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool
}

// Name returns the display name, falling back to the email.
func (u *User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Email
}

// Summary returns the public view of the user.
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name(), Email: u.Email}
}

// Summary is the display info attached to slots and swap requests.
type Summary struct {
	ID    string
	Name  string
	Email string
}
