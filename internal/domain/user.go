package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a login identity held by the identity provider.
type Identity struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserAccount is the dashboard profile and role bound to an Identity.
type UserAccount struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	IdentityID        uuid.UUID  `json:"identity_id" db:"identity_id"`
	Email             string     `json:"email" db:"email"`
	FullName          string     `json:"full_name" db:"full_name"`
	Role              UserRole   `json:"role" db:"role"`
	Department        *string    `json:"department,omitempty" db:"department"`
	Rank              *string    `json:"rank,omitempty" db:"rank"`
	Unit              *string    `json:"unit,omitempty" db:"unit"`
	PhoneNumber       *string    `json:"phone_number,omitempty" db:"phone_number"`
	ProfilePictureURL *string    `json:"profile_picture_url,omitempty" db:"profile_picture_url"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	LastLogin         *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleOperator UserRole = "operator"
	RoleAnalyst  UserRole = "analyst"
	RoleViewer   UserRole = "viewer"
)

var roleRank = map[UserRole]int{
	RoleViewer:   1,
	RoleAnalyst:  2,
	RoleOperator: 3,
	RoleAdmin:    4,
}

func (r UserRole) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// HasRole reports whether the account's role is at least required.
func (u *UserAccount) HasRole(required UserRole) bool {
	have, ok := roleRank[u.Role]
	if !ok {
		return false
	}
	return have >= roleRank[required]
}

type CreateUserInput struct {
	Email       string   `json:"email" validate:"required,email,max=255"`
	Password    string   `json:"password" validate:"required,min=8,max=72"`
	FullName    string   `json:"full_name" validate:"required,min=2,max=200"`
	Role        UserRole `json:"role" validate:"omitempty,oneof=admin operator analyst viewer"`
	Department  *string  `json:"department,omitempty" validate:"omitempty,max=200"`
	Rank        *string  `json:"rank,omitempty" validate:"omitempty,max=100"`
	Unit        *string  `json:"unit,omitempty" validate:"omitempty,max=100"`
	PhoneNumber *string  `json:"phone_number,omitempty" validate:"omitempty,max=20"`
}

type UpdateProfileInput struct {
	FullName    *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=200"`
	Department  *string `json:"department,omitempty" validate:"omitempty,max=200"`
	Rank        *string `json:"rank,omitempty" validate:"omitempty,max=100"`
	Unit        *string `json:"unit,omitempty" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,max=20"`
}

type ChangeRoleInput struct {
	Role UserRole `json:"role" validate:"required,oneof=admin operator analyst viewer"`
}

type SetActiveInput struct {
	IsActive bool `json:"is_active"`
}

type UserFilter struct {
	Role   *UserRole
	Active *bool
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Session struct {
	IdentityID uuid.UUID    `json:"identity_id"`
	User       *UserAccount `json:"user,omitempty"`
	Tokens     TokenPair    `json:"tokens"`
}
