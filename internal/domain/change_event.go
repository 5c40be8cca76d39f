package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Tables whose changes invalidate the stats snapshot.
const (
	TableRegistrations  = "registrations"
	TableUserProfiles   = "user_profiles"
	TableAccessRequests = "access_requests"
	TableIncidents      = "incidents"
)

// ChangeEvent tells subscribers that a row changed. Receivers re-query; the
// event is not a source of data.
type ChangeEvent struct {
	Table      string     `json:"table"`
	Type       ChangeType `json:"type"`
	RecordID   uuid.UUID  `json:"record_id"`
	OccurredAt time.Time  `json:"occurred_at"`

	// Origin identifies the publishing instance.
	Origin string `json:"origin,omitempty"`
}

func NewChangeEvent(table string, t ChangeType, id uuid.UUID) ChangeEvent {
	return ChangeEvent{Table: table, Type: t, RecordID: id, OccurredAt: time.Now().UTC()}
}

// AffectsStats reports whether the event's table feeds the stats counters.
func (e ChangeEvent) AffectsStats() bool {
	switch e.Table {
	case TableRegistrations, TableUserProfiles, TableAccessRequests:
		return true
	}
	return false
}
