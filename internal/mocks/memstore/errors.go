package memstore

import (
	"github.com/lib/pq"

	"citizen-registry/internal/repository"
)

// Unique violations are reported as *pq.Error so repository.IsUniqueViolation
// classifies them the same way as real database errors.
var (
	errDuplicateCode    = &pq.Error{Code: "23505", Constraint: repository.RegistrationCodeConstraint}
	errDuplicatePending = &pq.Error{Code: "23505", Constraint: repository.PendingEmailIndex}
)
