package repository

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repositories struct {
	Identity      IdentityRepository
	User          UserRepository
	Session       SessionRepository
	Registration  RegistrationRepository
	AccessRequest AccessRequestRepository
	Incident      IncidentRepository
	Report        ReportRepository
	AuditLog      AuditLogRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Identity:      NewIdentityRepository(db),
		User:          NewUserRepository(db),
		Session:       NewSessionRepository(db),
		Registration:  NewRegistrationRepository(db),
		AccessRequest: NewAccessRequestRepository(db),
		Incident:      NewIncidentRepository(db),
		Report:        NewReportRepository(db),
		AuditLog:      NewAuditLogRepository(db),
	}
}

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique violation. When
// constraint is non-empty the violated constraint or index must match it.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
