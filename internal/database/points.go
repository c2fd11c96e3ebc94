package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/models"
)

// CreditUser appends an earned ledger entry and bumps the cached
// balance in one transaction, so replaying the ledger always matches
// the cache.
func (s *Store) CreditUser(userID string, points int, description string, relatedPhotoID *string) (*models.PointHistory, error) {
	if points <= 0 {
		return nil, fmt.Errorf("credit amount must be positive: %w", common.ErrValidation)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entry := &models.PointHistory{
		ID:             uuid.New().String(),
		UserID:         userID,
		Points:         points,
		Type:           models.PointTypeEarned,
		Description:    description,
		RelatedPhotoID: relatedPhotoID,
		CreatedAt:      time.Now().Unix(),
	}

	_, err = tx.Exec(`
		INSERT INTO point_history (id, user_id, points, type, description, related_photo_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.UserID, entry.Points, entry.Type, entry.Description, entry.RelatedPhotoID, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE users SET points = points + $1, updated_at = $2 WHERE id = $3
	`, points, entry.CreatedAt, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, common.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit credit: %w", err)
	}

	return entry, nil
}

// DebitUser appends a used ledger entry (negative delta) and decrements
// the cached balance in one transaction. The user row is locked while
// the balance is checked, so concurrent debits cannot overdraw.
func (s *Store) DebitUser(userID string, points int, description string) (*models.PointHistory, error) {
	if points <= 0 {
		return nil, fmt.Errorf("debit amount must be positive: %w", common.ErrValidation)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balance int
	err = tx.Get(&balance, `SELECT points FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user row: %w", err)
	}

	if balance < points {
		return nil, fmt.Errorf("have %d, need %d: %w", balance, points, common.ErrInsufficientBalance)
	}

	entry := &models.PointHistory{
		ID:          uuid.New().String(),
		UserID:      userID,
		Points:      -points, // Stored negative so the ledger sums to the balance
		Type:        models.PointTypeUsed,
		Description: description,
		CreatedAt:   time.Now().Unix(),
	}

	_, err = tx.Exec(`
		INSERT INTO point_history (id, user_id, points, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.UserID, entry.Points, entry.Type, entry.Description, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE users SET points = points - $1, updated_at = $2 WHERE id = $3
	`, points, entry.CreatedAt, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit debit: %w", err)
	}

	return entry, nil
}

// UserBalance returns the cached balance.
func (s *Store) UserBalance(userID string) (int, error) {
	var balance int
	err := s.db.Get(&balance, `SELECT points FROM users WHERE id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// ReplayBalance recomputes the balance by summing the ledger. Used by
// correctness-critical paths and the reconciliation test.
func (s *Store) ReplayBalance(userID string) (int, error) {
	var balance int
	err := s.db.Get(&balance, `
		SELECT COALESCE(SUM(points), 0) FROM point_history WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to replay ledger: %w", err)
	}
	return balance, nil
}

// PointHistoriesByUser returns a user's ledger entries, newest first.
func (s *Store) PointHistoriesByUser(userID string) ([]models.PointHistory, error) {
	var entries []models.PointHistory
	err := s.db.Select(&entries, `
		SELECT * FROM point_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get point history: %w", err)
	}
	return entries, nil
}

// PointHistoriesByUserAndType filters the ledger by entry kind.
func (s *Store) PointHistoriesByUserAndType(userID, pointType string) ([]models.PointHistory, error) {
	var entries []models.PointHistory
	err := s.db.Select(&entries, `
		SELECT * FROM point_history
		WHERE user_id = $1 AND type = $2
		ORDER BY created_at DESC, id DESC
	`, userID, pointType)
	if err != nil {
		return nil, fmt.Errorf("failed to get point history by type: %w", err)
	}
	return entries, nil
}

// PointHistoriesByUserAndDateRange returns entries created in [from, to].
func (s *Store) PointHistoriesByUserAndDateRange(userID string, from, to int64) ([]models.PointHistory, error) {
	var entries []models.PointHistory
	err := s.db.Select(&entries, `
		SELECT * FROM point_history
		WHERE user_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at DESC, id DESC
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get point history by range: %w", err)
	}
	return entries, nil
}

// RecentPointHistories returns the newest N entries.
func (s *Store) RecentPointHistories(userID string, limit int) ([]models.PointHistory, error) {
	var entries []models.PointHistory
	err := s.db.Select(&entries, `
		SELECT * FROM point_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent point history: %w", err)
	}
	return entries, nil
}

// TotalEarnedPoints sums all earned entries for a user.
func (s *Store) TotalEarnedPoints(userID string) (int, error) {
	var total int
	err := s.db.Get(&total, `
		SELECT COALESCE(SUM(points), 0) FROM point_history
		WHERE user_id = $1 AND type = 'earned'
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get total earned: %w", err)
	}
	return total, nil
}

// TotalUsedPoints sums all used entries for a user, as a positive number.
func (s *Store) TotalUsedPoints(userID string) (int, error) {
	var total int
	err := s.db.Get(&total, `
		SELECT COALESCE(-SUM(points), 0) FROM point_history
		WHERE user_id = $1 AND type = 'used'
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get total used: %w", err)
	}
	return total, nil
}
