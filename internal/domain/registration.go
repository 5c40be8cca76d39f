package domain

import (
	"time"

	"github.com/google/uuid"
)

// Registration is a person entered into the registry, either a citizen
// self-registration or a suspect entered by an investigator.
type Registration struct {
	ID               uuid.UUID          `json:"id" db:"id"`
	RegistrationCode string             `json:"registration_code" db:"registration_code"`
	Kind             RegistrationKind   `json:"kind" db:"kind"`
	FirstName        string             `json:"first_name" db:"first_name"`
	LastName         string             `json:"last_name" db:"last_name"`
	DateOfBirth      *time.Time         `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender           string             `json:"gender" db:"gender"`
	PhoneNumber      string             `json:"phone_number" db:"phone_number"`
	Email            *string            `json:"email,omitempty" db:"email"`
	Address          string             `json:"address" db:"address"`
	State            string             `json:"state" db:"state"`
	LGA              string             `json:"lga" db:"lga"`
	Occupation       *string            `json:"occupation,omitempty" db:"occupation"`
	MaritalStatus    *string            `json:"marital_status,omitempty" db:"marital_status"`
	CrimeType        *string            `json:"crime_type,omitempty" db:"crime_type"`
	Severity         *Severity          `json:"severity,omitempty" db:"severity"`
	WantedStatus     *WantedStatus      `json:"wanted_status,omitempty" db:"wanted_status"`
	LastSeenLocation *string            `json:"last_seen_location,omitempty" db:"last_seen_location"`
	LastSeenDate     *time.Time         `json:"last_seen_date,omitempty" db:"last_seen_date"`
	Notes            *string            `json:"notes,omitempty" db:"notes"`
	PhotoURL         *string            `json:"photo_url,omitempty" db:"photo_url"`
	Status           RegistrationStatus `json:"status" db:"status"`
	CreatedBy        *uuid.UUID         `json:"created_by,omitempty" db:"created_by"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

func (r *Registration) FullName() string {
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

type RegistrationKind string

const (
	KindCitizen RegistrationKind = "citizen"
	KindSuspect RegistrationKind = "suspect"
)

// CodePrefix is the human-readable prefix of registration codes of this kind.
func (k RegistrationKind) CodePrefix() string {
	if k == KindSuspect {
		return "CR"
	}
	return "NG"
}

// RegistrationStatus is the canonical review status. It alone decides whether
// a profile counts as flagged; WantedStatus only describes suspects.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationVerified RegistrationStatus = "verified"
	RegistrationFlagged  RegistrationStatus = "flagged"
	RegistrationRejected RegistrationStatus = "rejected"
)

func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationPending, RegistrationVerified, RegistrationFlagged, RegistrationRejected:
		return true
	}
	return false
}

type WantedStatus string

const (
	WantedStatusWanted   WantedStatus = "wanted"
	WantedStatusArrested WantedStatus = "arrested"
	WantedStatusInactive WantedStatus = "inactive"
)

func (w WantedStatus) IsValid() bool {
	switch w {
	case WantedStatusWanted, WantedStatusArrested, WantedStatusInactive:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Placeholders written into suspect entries that were created without contact info.
const (
	PlaceholderNotProvided = "Not provided"
	PlaceholderUnknown     = "Unknown"
)

type CitizenRegistrationInput struct {
	FirstName     string     `json:"first_name" validate:"required,max=100"`
	LastName      string     `json:"last_name" validate:"required,max=100"`
	DateOfBirth   *time.Time `json:"date_of_birth" validate:"required"`
	Gender        string     `json:"gender" validate:"required,max=20"`
	PhoneNumber   string     `json:"phone_number" validate:"required,max=20"`
	Email         *string    `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Address       string     `json:"address" validate:"required,max=500"`
	State         string     `json:"state" validate:"required,max=100"`
	LGA           string     `json:"lga" validate:"required,max=100"`
	Occupation    *string    `json:"occupation,omitempty" validate:"omitempty,max=200"`
	MaritalStatus *string    `json:"marital_status,omitempty" validate:"omitempty,max=50"`
}

type SuspectRegistrationInput struct {
	FirstName        string        `json:"first_name" validate:"required,max=100"`
	LastName         string        `json:"last_name" validate:"required,max=100"`
	CrimeType        string        `json:"crime_type" validate:"required,max=100"`
	LastSeenLocation string        `json:"last_seen_location" validate:"required,max=200"`
	Severity         *Severity     `json:"severity,omitempty"`
	WantedStatus     *WantedStatus `json:"wanted_status,omitempty"`
	LastSeenDate     *time.Time    `json:"last_seen_date,omitempty"`
	Notes            *string       `json:"notes,omitempty" validate:"omitempty,max=2000"`
	DateOfBirth      *time.Time    `json:"date_of_birth,omitempty"`
	Gender           *string       `json:"gender,omitempty" validate:"omitempty,max=20"`
	PhoneNumber      *string       `json:"phone_number,omitempty" validate:"omitempty,max=20"`
	Address          *string       `json:"address,omitempty" validate:"omitempty,max=500"`
	State            *string       `json:"state,omitempty" validate:"omitempty,max=100"`
	LGA              *string       `json:"lga,omitempty" validate:"omitempty,max=100"`
}

// UpdateRegistrationInput carries the investigator-editable fields. A nil field is left unchanged.
type UpdateRegistrationInput struct {
	CrimeType         *string       `json:"crime_type,omitempty" validate:"omitempty,max=100"`
	Severity          *Severity     `json:"severity,omitempty"`
	WantedStatus      *WantedStatus `json:"wanted_status,omitempty"`
	LastSeenLocation  *string       `json:"last_seen_location,omitempty" validate:"omitempty,max=200"`
	LastSeenDate      *time.Time    `json:"last_seen_date,omitempty"`
	Notes             *string       `json:"notes,omitempty" validate:"omitempty,max=2000"`
	ExpectedUpdatedAt *time.Time    `json:"expected_updated_at,omitempty"`
}

func (in UpdateRegistrationInput) IsEmpty() bool {
	return in.CrimeType == nil && in.Severity == nil && in.WantedStatus == nil &&
		in.LastSeenLocation == nil && in.LastSeenDate == nil && in.Notes == nil
}

type SetStatusInput struct {
	Status            RegistrationStatus `json:"status" validate:"required"`
	ExpectedUpdatedAt *time.Time         `json:"expected_updated_at,omitempty"`
}

type RegistrationFilter struct {
	Status       *RegistrationStatus
	WantedStatus *WantedStatus
	Kind         *RegistrationKind
	Query        string
	Limit        int
}

func (f *RegistrationFilter) Validate() {
	if f.Limit < 1 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}
