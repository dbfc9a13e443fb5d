package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/shopping-planner/backend/internal/models"
)

const userColumns = `id, email, password_hash, name, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создает репозиторий пользователей.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create создает пользователя; повторный email дает ErrConflict.
func (r *UserRepository) Create(ctx context.Context, email, passwordHash string, name *string) (models.User, error) {
	user, err := r.queryUser(ctx,
		`INSERT INTO users (email, password_hash, name) VALUES ($1, $2, $3) RETURNING `+userColumns,
		email, passwordHash, name,
	)
	if err != nil {
		return models.User{}, mapWriteError(err)
	}
	return user, nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return r.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) queryUser(ctx context.Context, query string, args ...interface{}) (models.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return models.User{}, err
	}

	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return user, err
}
