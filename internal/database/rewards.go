package database

import (
	"database/sql"
	"fmt"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/models"
)

// CreateReward inserts a reward record.
func (s *Store) CreateReward(r *models.Reward) error {
	query := `
		INSERT INTO rewards (id, user_id, points_used, reward_type, status, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(query,
		r.ID, r.UserID, r.PointsUsed, r.RewardType, r.Status, r.CreatedAt, r.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}

	return nil
}

// DeleteReward removes a reward row. Used by the exchange compensation
// path when pin generation fails; the pin row (if any) cascades.
func (s *Store) DeleteReward(id string) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reward: %w", err)
	}
	return nil
}

// RewardByID fetches a single reward.
func (s *Store) RewardByID(id string) (*models.Reward, error) {
	var reward models.Reward
	err := s.db.Get(&reward, `SELECT * FROM rewards WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return &reward, nil
}

// RewardsByUser returns a user's rewards, newest first.
func (s *Store) RewardsByUser(userID string) ([]models.Reward, error) {
	var rewards []models.Reward
	err := s.db.Select(&rewards, `
		SELECT * FROM rewards
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rewards: %w", err)
	}
	return rewards, nil
}

// RewardsByUserAndStatus filters a user's rewards by status.
func (s *Store) RewardsByUserAndStatus(userID, status string) ([]models.Reward, error) {
	var rewards []models.Reward
	err := s.db.Select(&rewards, `
		SELECT * FROM rewards
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
	`, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get rewards by status: %w", err)
	}
	return rewards, nil
}

// InsertPin stores a freshly generated pin. The unique index on
// pin_number turns a code collision into common.ErrDuplicateCode so the
// caller can retry with a new code.
func (s *Store) InsertPin(p *models.RewardPin) error {
	query := `
		INSERT INTO reward_pins (id, reward_id, pin_number, issued_at, expires_at, is_used, used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(query,
		p.ID, p.RewardID, p.PinNumber, p.IssuedAt, p.ExpiresAt, p.IsUsed, p.UsedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrDuplicateCode
		}
		return fmt.Errorf("failed to insert pin: %w", err)
	}

	return nil
}

// PinByNumber looks up a pin by its full code.
func (s *Store) PinByNumber(pinNumber string) (*models.RewardPin, error) {
	var pin models.RewardPin
	err := s.db.Get(&pin, `SELECT * FROM reward_pins WHERE pin_number = $1`, pinNumber)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pin: %w", err)
	}
	return &pin, nil
}

// PinByReward fetches the pin issued for a reward.
func (s *Store) PinByReward(rewardID string) (*models.RewardPin, error) {
	var pin models.RewardPin
	err := s.db.Get(&pin, `SELECT * FROM reward_pins WHERE reward_id = $1`, rewardID)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pin by reward: %w", err)
	}
	return &pin, nil
}

// PinsByUser returns every pin a user has been issued, newest first.
func (s *Store) PinsByUser(userID string) ([]models.RewardPin, error) {
	var pins []models.RewardPin
	err := s.db.Select(&pins, `
		SELECT p.* FROM reward_pins p
		JOIN rewards r ON r.id = p.reward_id
		WHERE r.user_id = $1
		ORDER BY p.issued_at DESC, p.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pins: %w", err)
	}
	return pins, nil
}

// MarkPinUsed flips an unused pin to used. Returns false when the pin
// was already used; the WHERE clause makes redemption first-wins under
// concurrency.
func (s *Store) MarkPinUsed(id string, usedAt int64) (bool, error) {
	result, err := s.db.Exec(`
		UPDATE reward_pins
		SET is_used = TRUE, used_at = $1
		WHERE id = $2 AND is_used = FALSE
	`, usedAt, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark pin used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}
