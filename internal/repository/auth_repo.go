package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"malaria_clinic/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure implementation of Authorization interface at compile time.
var _ Authorization = (*UserRepository)(nil)

const (
	insertUserSQL           = `INSERT INTO Users (Username, Password) VALUES (?, ?)`
	selectUserByUsernameSQL = `SELECT UserID, Username, Password FROM Users WHERE LOWER(Username) = LOWER(?)`
	countUsersSQL           = `SELECT COUNT(*) FROM Users`
	updateUserPasswordSQL   = `UPDATE Users SET Password = ? WHERE UserID = ?`
)

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (int, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, username, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("insert user %q: %w", username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", username, err)
	}
	return int(lastID), nil
}

// GetByUsername fetches a user by case-insensitive username. Returns (nil, nil) if not found.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, selectUserByUsernameSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	return &u, nil
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	n, err := countRows(ctx, r.db, countUsersSQL)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// UpdatePassword replaces the stored password of user id.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	if _, err := r.db.ExecContext(ctx, updateUserPasswordSQL, hash, id); err != nil {
		return fmt.Errorf("update password of user %d: %w", id, err)
	}
	return nil
}
