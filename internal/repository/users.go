package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/video-game-reviews/internal/domain"
)

// UsersRepository persists user accounts.
type UsersRepository struct {
	db DBTX
}

// UserCreateParams bundles the fields required to create a user.
type UserCreateParams struct {
	Username     string
	Email        string
	PasswordHash string
}

const userColumns = `id, username, email, password_hash, created_at`

// Create inserts a new user row and returns the stored entity.
func (r *UsersRepository) Create(ctx context.Context, params UserCreateParams) (domain.User, error) {
	const query = `
        INSERT INTO users (username, email, password_hash)
        VALUES ($1,$2,$3)
        RETURNING ` + userColumns
	row := r.db.QueryRow(ctx, query, params.Username, params.Email, params.PasswordHash)
	return scanUser(row)
}

// GetByID fetches a user by identifier.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, notFound(err)
	}
	return user, nil
}

// GetByEmail fetches a user by email address.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, notFound(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	return user, err
}
