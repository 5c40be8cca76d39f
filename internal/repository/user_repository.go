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

type UserRepository interface {
	Create(ctx context.Context, user *domain.UserAccount) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserAccount, error)
	GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*domain.UserAccount, error)
	List(ctx context.Context, filter domain.UserFilter) ([]domain.UserAccount, error)
	UpdateProfile(ctx context.Context, user *domain.UserAccount) error
	SetRole(ctx context.Context, id uuid.UUID, role domain.UserRole) (bool, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	SetAvatar(ctx context.Context, id uuid.UUID, url string) (bool, error)
	TouchLastLogin(ctx context.Context, identityID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountActive(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.UserAccount) error {
	query := `
		INSERT INTO user_profiles (id, identity_id, email, full_name, role, department, rank, unit, phone_number, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		user.ID, user.IdentityID, user.Email, user.FullName, user.Role,
		user.Department, user.Rank, user.Unit, user.PhoneNumber, user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserAccount, error) {
	var user domain.UserAccount
	query := `SELECT * FROM user_profiles WHERE id = $1`

	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*domain.UserAccount, error) {
	var user domain.UserAccount
	query := `SELECT * FROM user_profiles WHERE identity_id = $1`

	err := r.db.GetContext(ctx, &user, query, identityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter domain.UserFilter) ([]domain.UserAccount, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Role != nil {
		args = append(args, *filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}

	query := `SELECT * FROM user_profiles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	users := []domain.UserAccount{}
	err := r.db.SelectContext(ctx, &users, query, args...)
	return users, err
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.UserAccount) error {
	query := `
		UPDATE user_profiles
		SET full_name = :full_name, department = :department, rank = :rank,
			unit = :unit, phone_number = :phone_number, updated_at = NOW()
		WHERE id = :id`

	_, err := r.db.NamedExecContext(ctx, query, user)
	return err
}

func (r *userRepository) SetRole(ctx context.Context, id uuid.UUID, role domain.UserRole) (bool, error) {
	query := `UPDATE user_profiles SET role = $2, updated_at = NOW() WHERE id = $1`
	return execAffected(ctx, r.db, query, id, role)
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	query := `UPDATE user_profiles SET is_active = $2, updated_at = NOW() WHERE id = $1`
	return execAffected(ctx, r.db, query, id, active)
}

func (r *userRepository) SetAvatar(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	query := `UPDATE user_profiles SET profile_picture_url = $2, updated_at = NOW() WHERE id = $1`
	return execAffected(ctx, r.db, query, id, url)
}

func (r *userRepository) TouchLastLogin(ctx context.Context, identityID uuid.UUID, at time.Time) error {
	query := `UPDATE user_profiles SET last_login = $2 WHERE identity_id = $1`
	_, err := r.db.ExecContext(ctx, query, identityID, at)
	return err
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM user_profiles WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *userRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM user_profiles WHERE is_active = TRUE`)
	return count, err
}

func execAffected(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (bool, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
