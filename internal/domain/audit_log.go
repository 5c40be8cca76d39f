package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty" db:"actor_id"`
	ActorName  *string         `json:"actor_name,omitempty" db:"actor_name"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	OldValue   json.RawMessage `json:"old_value,omitempty" db:"old_value"`
	NewValue   json.RawMessage `json:"new_value,omitempty" db:"new_value"`
	IPAddress  *string         `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string         `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	AuditApproveAccess    = "access_request.approve"
	AuditRejectAccess     = "access_request.reject"
	AuditRegistrationEdit = "registration.update"
	AuditStatusChange     = "registration.status"
	AuditIncidentApprove  = "incident.approve"
	AuditIncidentReject   = "incident.reject"
	AuditUserCreate       = "user.create"
	AuditUserRole         = "user.role"
	AuditUserActive       = "user.active"
)

// Actor identifies who performed a mutation and from where.
type Actor struct {
	UserID    *uuid.UUID
	IPAddress *string
	UserAgent *string
}

type CreateAuditLogInput struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   uuid.UUID
	OldValue   interface{}
	NewValue   interface{}
}
