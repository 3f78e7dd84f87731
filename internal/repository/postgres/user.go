package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

const userColumns = `user_id, full_name, email, password_hash, role, phone, city, created_at`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		INSERT INTO users (full_name, email, password_hash, role, phone, city)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.City,
	).Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapNotFound(err))
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", mapNotFound(err))
	}
	return &user, nil
}
