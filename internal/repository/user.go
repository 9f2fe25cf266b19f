package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snaptaplaque/plateapi/internal/model"
)

const userColumns = `id, email, username, hashed_password, full_name, is_active, is_admin, created_at`

// UserRepository is the PostgreSQL-backed UserStore.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new account. Unique violations on email or username are
// reported as ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user model.User) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, username, hashed_password, full_name, is_active, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, user.Email, user.Username, user.HashedPassword, user.FullName, user.IsActive, user.IsAdmin)
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

// Ensure inserts the account unless the username already exists, in which
// case the stored account is returned unchanged. The ON CONFLICT DO NOTHING
// form makes seeding safe to repeat.
func (r *UserRepository) Ensure(ctx context.Context, user model.User) (*model.User, bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO users (email, username, hashed_password, full_name, is_active, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username) DO NOTHING
	`, user.Email, user.Username, user.HashedPassword, user.FullName, user.IsActive, user.IsAdmin)
	if err != nil {
		return nil, false, fmt.Errorf("ensure user: %w", err)
	}
	stored, err := r.GetByUsername(ctx, user.Username)
	if err != nil {
		return nil, false, err
	}
	return stored, tag.RowsAffected() > 0, nil
}

// GetByUsername returns the account or ErrNotFound.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "username", username)
}

// GetByEmail returns the account or ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*model.User, error) {
	var user model.User
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column), value)
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.HashedPassword,
		&user.FullName, &user.IsActive, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s=%s: %w", column, value, ErrNotFound)
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

// ListAll returns every account ordered by id.
func (r *UserRepository) ListAll(ctx context.Context) ([]*model.User, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM users ORDER BY id`, userColumns))
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Username, &user.HashedPassword,
			&user.FullName, &user.IsActive, &user.IsAdmin, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// CountAll returns the number of registered accounts.
func (r *UserRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	row := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
