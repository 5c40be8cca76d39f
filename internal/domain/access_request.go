package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccessRequest is an unauthenticated user's request for a dashboard account.
type AccessRequest struct {
	ID              uuid.UUID           `json:"id" db:"id"`
	Email           string              `json:"email" db:"email"`
	FullName        string              `json:"full_name" db:"full_name"`
	Department      *string             `json:"department,omitempty" db:"department"`
	Rank            *string             `json:"rank,omitempty" db:"rank"`
	Unit            *string             `json:"unit,omitempty" db:"unit"`
	PhoneNumber     *string             `json:"phone_number,omitempty" db:"phone_number"`
	ReasonForAccess *string             `json:"reason_for_access,omitempty" db:"reason_for_access"`
	Status          AccessRequestStatus `json:"status" db:"status"`
	ApprovedBy      *uuid.UUID          `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time          `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
}

type AccessRequestStatus string

const (
	AccessPending  AccessRequestStatus = "pending"
	AccessApproved AccessRequestStatus = "approved"
	AccessRejected AccessRequestStatus = "rejected"
)

func (s AccessRequestStatus) IsValid() bool {
	switch s {
	case AccessPending, AccessApproved, AccessRejected:
		return true
	}
	return false
}

func (s AccessRequestStatus) IsTerminal() bool {
	return s == AccessApproved || s == AccessRejected
}

const (
	DefaultAccessReason     = "Database access request"
	DefaultAccessDepartment = "To be assigned by admin"
)

type AccessRequestInput struct {
	Email           string  `json:"email" validate:"required,email,max=255"`
	FullName        *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=200"`
	ReasonForAccess *string `json:"reason_for_access,omitempty" validate:"omitempty,max=1000"`
	Department      *string `json:"department,omitempty" validate:"omitempty,max=200"`
	Rank            *string `json:"rank,omitempty" validate:"omitempty,max=100"`
	Unit            *string `json:"unit,omitempty" validate:"omitempty,max=100"`
	PhoneNumber     *string `json:"phone_number,omitempty" validate:"omitempty,max=20"`
}

type ApproveAccessRequestInput struct {
	TemporaryPassword string    `json:"temporary_password" validate:"required,min=8,max=72"`
	Role              *UserRole `json:"role,omitempty"`
}
