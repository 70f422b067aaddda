package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"home_climate/internal/models"
)

// ErrUsernameTaken is returned when an account with the same username exists.
var ErrUsernameTaken = errors.New("username already taken")

// UserSQLite stores household accounts in the users table.
type UserSQLite struct {
	db *sql.DB
}

func NewUserSQLite(db *sql.DB) *UserSQLite {
	return &UserSQLite{db: db}
}

var _ UserRepo = (*UserSQLite)(nil)

const (
	insertUserSQL           = `INSERT INTO users (username, password_hash, admin) VALUES (?, ?, ?)`
	selectUserByUsernameSQL = `SELECT id, username, password_hash, admin FROM users WHERE username = ?`
)

// Create inserts u and returns it with its assigned id.
func (r *UserSQLite) Create(ctx context.Context, u models.User) (models.User, error) {
	if err := validateDoc(u); err != nil {
		return models.User{}, err
	}
	res, err := r.db.ExecContext(ctx, insertUserSQL, u.Username, u.PasswordHash, u.Admin)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%w: %q", ErrUsernameTaken, u.Username)
		}
		return models.User{}, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("last insert id for user %q: %w", u.Username, err)
	}
	u.ID = int(id)
	return u, nil
}

// GetByUsername returns ErrNotFound for an unknown username.
func (r *UserSQLite) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, selectUserByUsernameSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Admin)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.User{}, ErrNotFound
	case err != nil:
		return models.User{}, fmt.Errorf("select user %q: %w", username, err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
