package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"
)

// CreateUser inserts a user and fills in the generated ID and timestamp.
// A taken username yields ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password)
		VALUES ($1, $2)
		RETURNING user_id, created_at`

	err := s.db.GetContext(ctx, user, query, user.Username, user.PasswordHash)
	if isUniqueViolation(err) {
		return fmt.Errorf("username %q: %w", user.Username, ErrDuplicate)
	}
	return err
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		"SELECT user_id, username, password, created_at FROM users WHERE username = $1", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
