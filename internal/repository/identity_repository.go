package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"citizen-registry/internal/domain"
)

type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type identityRepository struct {
	db *sqlx.DB
}

func NewIdentityRepository(db *sqlx.DB) IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	query := `
		INSERT INTO auth_identities (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		identity.ID, identity.Email, identity.PasswordHash,
	).Scan(&identity.CreatedAt, &identity.UpdatedAt)
}

func (r *identityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	var identity domain.Identity
	query := `SELECT * FROM auth_identities WHERE id = $1`

	err := r.db.GetContext(ctx, &identity, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	var identity domain.Identity
	query := `SELECT * FROM auth_identities WHERE LOWER(email) = LOWER($1)`

	err := r.db.GetContext(ctx, &identity, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM auth_identities WHERE LOWER(email) = LOWER($1))`
	err := r.db.GetContext(ctx, &exists, query, email)
	return exists, err
}

func (r *identityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM auth_identities WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
