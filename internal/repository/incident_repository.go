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

type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	// SetEvidence attaches evidence to a report that is still pending.
	SetEvidence(ctx context.Context, id uuid.UUID, url string) (bool, error)
	Decide(ctx context.Context, id uuid.UUID, status domain.IncidentStatus, reviewerID uuid.UUID, approvedAt *time.Time) (bool, error)
	List(ctx context.Context, filter domain.IncidentFilter) ([]domain.Incident, error)
}

type incidentRepository struct {
	db *sqlx.DB
}

func NewIncidentRepository(db *sqlx.DB) IncidentRepository {
	return &incidentRepository{db: db}
}

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (id, reporter_name, incident_type, location, description, priority, status, submitted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		incident.ID, incident.ReporterName, incident.IncidentType, incident.Location,
		incident.Description, incident.Priority, incident.Status, incident.SubmittedBy,
	).Scan(&incident.CreatedAt, &incident.UpdatedAt)
}

func (r *incidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	var incident domain.Incident
	query := `SELECT * FROM incidents WHERE id = $1`

	err := r.db.GetContext(ctx, &incident, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *incidentRepository) SetEvidence(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	query := `UPDATE incidents SET evidence_url = $2, updated_at = NOW() WHERE id = $1 AND status = 'pending'`
	return execAffected(ctx, r.db, query, id, url)
}

func (r *incidentRepository) Decide(ctx context.Context, id uuid.UUID, status domain.IncidentStatus, reviewerID uuid.UUID, approvedAt *time.Time) (bool, error) {
	query := `
		UPDATE incidents
		SET status = $2, reviewed_by = $3, approved_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`
	return execAffected(ctx, r.db, query, id, status, reviewerID, approvedAt)
}

func (r *incidentRepository) List(ctx context.Context, filter domain.IncidentFilter) ([]domain.Incident, error) {
	filter.Validate()

	var (
		where []string
		args  []interface{}
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}

	query := `SELECT * FROM incidents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	incidents := []domain.Incident{}
	err := r.db.SelectContext(ctx, &incidents, query, args...)
	return incidents, err
}
