package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ticketing-front/internal/devserver/repository"
)

const userColumns = `id, email, password_hash, first_name, last_name, user_key, roles, created_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user repository.User) (repository.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Key == "" {
		user.Key = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}
	if user.Roles == nil {
		user.Roles = []string{}
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, user_key, roles, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Key, user.Roles, user.CreatedAt,
	).Scan(&user.ID)
	if hasCode(err, uniqueViolation) {
		return repository.User{}, repository.ErrConflict
	}
	if err != nil {
		return repository.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (repository.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email))
	return scanUser(row, "find user by email")
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (repository.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, "find user by id")
}

func scanUser(row rowScanner, op string) (repository.User, error) {
	var user repository.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Key, &user.Roles, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.User{}, repository.ErrNotFound
	}
	if err != nil {
		return repository.User{}, fmt.Errorf("%s: %w", op, err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}
