package domain

import (
	"time"

	"github.com/google/uuid"
)

type Incident struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	ReporterName string         `json:"reporter_name" db:"reporter_name"`
	IncidentType string         `json:"incident_type" db:"incident_type"`
	Location     string         `json:"location" db:"location"`
	Description  string         `json:"description" db:"description"`
	EvidenceURL  *string        `json:"evidence_url,omitempty" db:"evidence_url"`
	Priority     Priority       `json:"priority" db:"priority"`
	Status       IncidentStatus `json:"status" db:"status"`
	SubmittedBy  *uuid.UUID     `json:"submitted_by,omitempty" db:"submitted_by"`
	ReviewedBy   *uuid.UUID     `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ApprovedAt   *time.Time     `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type IncidentStatus string

const (
	IncidentPending  IncidentStatus = "pending"
	IncidentApproved IncidentStatus = "approved"
	IncidentRejected IncidentStatus = "rejected"
)

func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentPending, IncidentApproved, IncidentRejected:
		return true
	}
	return false
}

type IncidentInput struct {
	ReporterName string    `json:"reporter_name" validate:"required,max=200"`
	IncidentType string    `json:"incident_type" validate:"required,max=100"`
	Location     string    `json:"location" validate:"required,max=200"`
	Description  string    `json:"description" validate:"required,max=5000"`
	Priority     *Priority `json:"priority,omitempty"`
}

type IncidentFilter struct {
	Status   *IncidentStatus
	Priority *Priority
	Limit    int
}

func (f *IncidentFilter) Validate() {
	if f.Limit < 1 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}
