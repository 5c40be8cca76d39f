package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"citizen-registry/internal/domain"
)

// PendingEmailIndex backs the one-pending-request-per-email rule.
const PendingEmailIndex = "access_requests_pending_email_key"

type AccessRequestRepository interface {
	Create(ctx context.Context, req *domain.AccessRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AccessRequest, error)
	HasPending(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, status *domain.AccessRequestStatus, params domain.PaginationParams) ([]domain.AccessRequest, int64, error)
	ListRecent(ctx context.Context, limit int) ([]domain.AccessRequest, error)
	// Decide moves a pending request to a terminal status. It reports false
	// when the request was no longer pending.
	Decide(ctx context.Context, id uuid.UUID, status domain.AccessRequestStatus, approverID uuid.UUID, at time.Time) (bool, error)
	CountByStatus(ctx context.Context, status domain.AccessRequestStatus) (int64, error)
}

type accessRequestRepository struct {
	db *sqlx.DB
}

func NewAccessRequestRepository(db *sqlx.DB) AccessRequestRepository {
	return &accessRequestRepository{db: db}
}

func (r *accessRequestRepository) Create(ctx context.Context, req *domain.AccessRequest) error {
	query := `
		INSERT INTO access_requests (id, email, full_name, department, rank, unit, phone_number, reason_for_access, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		req.ID, req.Email, req.FullName, req.Department, req.Rank, req.Unit,
		req.PhoneNumber, req.ReasonForAccess, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *accessRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccessRequest, error) {
	var req domain.AccessRequest
	query := `SELECT * FROM access_requests WHERE id = $1`

	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *accessRequestRepository) HasPending(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM access_requests WHERE LOWER(email) = LOWER($1) AND status = 'pending')`
	err := r.db.GetContext(ctx, &exists, query, email)
	return exists, err
}

func (r *accessRequestRepository) List(ctx context.Context, status *domain.AccessRequestStatus, params domain.PaginationParams) ([]domain.AccessRequest, int64, error) {
	params.Validate()

	var total int64
	countQuery := `SELECT COUNT(*) FROM access_requests WHERE ($1::text IS NULL OR status = $1)`
	if err := r.db.GetContext(ctx, &total, countQuery, status); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT * FROM access_requests
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	reqs := []domain.AccessRequest{}
	err := r.db.SelectContext(ctx, &reqs, query, status, params.PageSize, params.Offset())
	return reqs, total, err
}

func (r *accessRequestRepository) ListRecent(ctx context.Context, limit int) ([]domain.AccessRequest, error) {
	query := `SELECT * FROM access_requests ORDER BY created_at DESC LIMIT $1`
	reqs := []domain.AccessRequest{}
	err := r.db.SelectContext(ctx, &reqs, query, limit)
	return reqs, err
}

func (r *accessRequestRepository) Decide(ctx context.Context, id uuid.UUID, status domain.AccessRequestStatus, approverID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE access_requests
		SET status = $2, approved_by = $3, approved_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`
	return execAffected(ctx, r.db, query, id, status, approverID, at)
}

func (r *accessRequestRepository) CountByStatus(ctx context.Context, status domain.AccessRequestStatus) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM access_requests WHERE status = $1`, status)
	return count, err
}
