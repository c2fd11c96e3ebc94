package database

import (
	"database/sql"
	"fmt"
	"time"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/models"
)

// CreateUser inserts a new user row. Returns common.ErrValidation when
// the username is already taken.
func (s *Store) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (id, username, password, name, points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(query,
		user.ID, user.Username, user.Password, user.Name, user.Points,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %s: %w", user.Username, common.ErrValidation)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// UserByUsername fetches a user by login name.
func (s *Store) UserByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.Get(&user, `SELECT * FROM users WHERE username = $1`, username)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UserByID fetches a user by id.
func (s *Store) UserByID(id string) (*models.User, error) {
	var user models.User
	err := s.db.Get(&user, `SELECT * FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateUserFCMToken stores a user's device token for push delivery.
func (s *Store) UpdateUserFCMToken(id, token string) error {
	result, err := s.db.Exec(
		`UPDATE users SET fcm_token = $1, updated_at = $2 WHERE id = $3`,
		token, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update fcm token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return common.ErrNotFound
	}

	return nil
}

// UpdateUserName changes the display name of a user.
func (s *Store) UpdateUserName(id, name string) error {
	result, err := s.db.Exec(
		`UPDATE users SET name = $1, updated_at = $2 WHERE id = $3`,
		name, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return common.ErrNotFound
	}

	return nil
}
