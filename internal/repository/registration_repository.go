package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"citizen-registry/internal/domain"
)

// RegistrationCodeConstraint is the unique constraint on registration codes.
const RegistrationCodeConstraint = "registrations_code_key"

// likeEscaper makes a search term match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	// Update writes the editable fields of reg. It reports false when no row
	// matched, which includes a stale expectedUpdatedAt.
	Update(ctx context.Context, reg *domain.Registration, expectedUpdatedAt *time.Time) (bool, error)
	// SetStatus also returns the status the row held before the write. A nil
	// registration means no row matched.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.RegistrationStatus, expectedUpdatedAt *time.Time) (*domain.Registration, domain.RegistrationStatus, error)
	SetPhoto(ctx context.Context, id uuid.UUID, url string) (bool, error)
	List(ctx context.Context, filter domain.RegistrationFilter) ([]domain.Registration, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time, crimeType, state *string) ([]domain.Registration, error)
	CountByStatus(ctx context.Context, status *domain.RegistrationStatus) (int64, error)
}

type registrationRepository struct {
	db *sqlx.DB
}

func NewRegistrationRepository(db *sqlx.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (
			id, registration_code, kind, first_name, last_name, date_of_birth, gender,
			phone_number, email, address, state, lga, occupation, marital_status,
			crime_type, severity, wanted_status, last_seen_location, last_seen_date,
			notes, photo_url, status, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		reg.ID, reg.RegistrationCode, reg.Kind, reg.FirstName, reg.LastName, reg.DateOfBirth, reg.Gender,
		reg.PhoneNumber, reg.Email, reg.Address, reg.State, reg.LGA, reg.Occupation, reg.MaritalStatus,
		reg.CrimeType, reg.Severity, reg.WantedStatus, reg.LastSeenLocation, reg.LastSeenDate,
		reg.Notes, reg.PhotoURL, reg.Status, reg.CreatedBy,
	).Scan(&reg.CreatedAt, &reg.UpdatedAt)
}

func (r *registrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	var reg domain.Registration
	query := `SELECT * FROM registrations WHERE id = $1`

	err := r.db.GetContext(ctx, &reg, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) Update(ctx context.Context, reg *domain.Registration, expectedUpdatedAt *time.Time) (bool, error) {
	query := `
		UPDATE registrations
		SET crime_type = $2, severity = $3, wanted_status = $4, last_seen_location = $5,
			last_seen_date = $6, notes = $7, updated_at = NOW()
		WHERE id = $1 AND ($8::timestamptz IS NULL OR updated_at = $8)
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		reg.ID, reg.CrimeType, reg.Severity, reg.WantedStatus, reg.LastSeenLocation,
		reg.LastSeenDate, reg.Notes, expectedUpdatedAt,
	).Scan(&reg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *registrationRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.RegistrationStatus, expectedUpdatedAt *time.Time) (*domain.Registration, domain.RegistrationStatus, error) {
	var row struct {
		domain.Registration
		PreviousStatus domain.RegistrationStatus `db:"previous_status"`
	}
	query := `
		UPDATE registrations r
		SET status = $2, updated_at = NOW()
		FROM (SELECT id, status AS previous_status FROM registrations WHERE id = $1 FOR UPDATE) prev
		WHERE r.id = prev.id AND ($3::timestamptz IS NULL OR r.updated_at = $3)
		RETURNING r.*, prev.previous_status`

	err := r.db.QueryRowxContext(ctx, query, id, status, expectedUpdatedAt).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &row.Registration, row.PreviousStatus, nil
}

func (r *registrationRepository) SetPhoto(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	query := `UPDATE registrations SET photo_url = $2, updated_at = NOW() WHERE id = $1`
	return execAffected(ctx, r.db, query, id, url)
}

func (r *registrationRepository) List(ctx context.Context, filter domain.RegistrationFilter) ([]domain.Registration, error) {
	filter.Validate()

	var (
		where []string
		args  []interface{}
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.WantedStatus != nil {
		args = append(args, *filter.WantedStatus)
		where = append(where, fmt.Sprintf("wanted_status = $%d", len(args)))
	}
	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
		where = append(where, fmt.Sprintf(`(first_name || ' ' || last_name || ' ' || registration_code) ILIKE $%d ESCAPE '\'`, len(args)))
	}

	query := `SELECT * FROM registrations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	regs := []domain.Registration{}
	err := r.db.SelectContext(ctx, &regs, query, args...)
	return regs, err
}

func (r *registrationRepository) ListCreatedBetween(ctx context.Context, from, to time.Time, crimeType, state *string) ([]domain.Registration, error) {
	query := `
		SELECT * FROM registrations
		WHERE created_at >= $1 AND created_at < $2
			AND ($3::text IS NULL OR crime_type = $3)
			AND ($4::text IS NULL OR state = $4)
		ORDER BY created_at ASC`

	regs := []domain.Registration{}
	err := r.db.SelectContext(ctx, &regs, query, from, to, crimeType, state)
	return regs, err
}

func (r *registrationRepository) CountByStatus(ctx context.Context, status *domain.RegistrationStatus) (int64, error) {
	var count int64
	if status == nil {
		err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM registrations`)
		return count, err
	}
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM registrations WHERE status = $1`, *status)
	return count, err
}
