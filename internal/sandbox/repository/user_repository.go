package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// UserRow is the users table shape for sandbox authentication.
type UserRow struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	FullName     string    `db:"full_name"`
	Active       bool      `db:"active"`
	CreatedAt    time.Time `db:"created_at"`
}

// UserRepository manages sandbox login accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail fetches an account by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*UserRow, error) {
	const query = "SELECT id, email, password_hash, full_name, active, created_at FROM users WHERE email = $1"
	var row UserRow
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		return nil, err
	}
	return &row, nil
}
