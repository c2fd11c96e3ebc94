package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/models"
)

// RewardStore is the slice of the store the reward service needs.
type RewardStore interface {
	CreateReward(r *models.Reward) error
	DeleteReward(id string) error
	RewardByID(id string) (*models.Reward, error)
	RewardsByUser(userID string) ([]models.Reward, error)
	RewardsByUserAndStatus(userID, status string) ([]models.Reward, error)
	InsertPin(p *models.RewardPin) error
	PinByNumber(pinNumber string) (*models.RewardPin, error)
	PinByReward(rewardID string) (*models.RewardPin, error)
	PinsByUser(userID string) ([]models.RewardPin, error)
	MarkPinUsed(id string, usedAt int64) (bool, error)
}

// Pins are valid for one year from issuance.
const pinValidity = 365 * 24 * time.Hour

// RewardService exchanges points for rewards backed by unique pin
// codes, and redeems those codes.
type RewardService struct {
	store       RewardStore
	points      *PointsService
	maxAttempts int

	mu  sync.Mutex
	rng *rand.Rand

	now func() time.Time // Injectable for expiry tests
}

func NewRewardService(store RewardStore, points *PointsService, maxAttempts int) *RewardService {
	return &RewardService{
		store:       store,
		points:      points,
		maxAttempts: maxAttempts,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
}

// ExchangeResult pairs the created reward with its pin. The pin's full
// code is only surfaced here, at issuance.
type ExchangeResult struct {
	Reward *models.Reward
	Pin    *models.RewardPin
}

// Exchange debits the user's points and issues an approved reward with
// a fresh unique pin. If pin generation exhausts its attempts the debit
// is compensated with an equal credit and the reward is deleted, so the
// user never pays for a pin they did not get.
func (s *RewardService) Exchange(userID string, points int, rewardType string) (*ExchangeResult, error) {
	if points <= 0 {
		return nil, fmt.Errorf("exchange amount must be positive: %w", common.ErrValidation)
	}
	if rewardType == "" {
		return nil, fmt.Errorf("reward type is required: %w", common.ErrValidation)
	}

	description := fmt.Sprintf("Exchanged %d points for %s", points, rewardType)
	if _, err := s.points.Debit(userID, points, description); err != nil {
		return nil, err
	}

	nowUnix := s.now().Unix()
	reward := &models.Reward{
		ID:          uuid.New().String(),
		UserID:      userID,
		PointsUsed:  points,
		RewardType:  rewardType,
		Status:      models.RewardStatusApproved,
		CreatedAt:   nowUnix,
		ProcessedAt: &nowUnix,
	}

	if err := s.store.CreateReward(reward); err != nil {
		s.compensate(userID, points, rewardType)
		return nil, err
	}

	pin, err := s.issuePin(reward.ID)
	if err != nil {
		// Undo the whole exchange. The ledger stays append-only: the
		// debit entry remains, matched by a compensating credit.
		if delErr := s.store.DeleteReward(reward.ID); delErr != nil {
			log.Printf("failed to delete reward %s during compensation: %v", reward.ID, delErr)
		}
		s.compensate(userID, points, rewardType)
		return nil, err
	}

	return &ExchangeResult{Reward: reward, Pin: pin}, nil
}

func (s *RewardService) compensate(userID string, points int, rewardType string) {
	description := fmt.Sprintf("Refund for failed %s exchange", rewardType)
	if _, err := s.points.Credit(userID, points, description); err != nil {
		log.Printf("❌ compensation credit of %d points to user %s failed: %v", points, userID, err)
	}
}

// issuePin mints a unique pin for a reward, retrying on code collisions
// up to maxAttempts times.
func (s *RewardService) issuePin(rewardID string) (*models.RewardPin, error) {
	issuedAt := s.now()

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		pin := &models.RewardPin{
			ID:        uuid.New().String(),
			RewardID:  rewardID,
			PinNumber: s.generatePinNumber(),
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: issuedAt.Add(pinValidity).Unix(),
			IsUsed:    false,
		}

		err := s.store.InsertPin(pin)
		if err == nil {
			return pin, nil
		}
		if errors.Is(err, common.ErrDuplicateCode) {
			continue
		}
		return nil, err
	}

	return nil, common.ErrCodeGenerationExhausted
}

// generatePinNumber produces a code of four 4-digit groups, e.g.
// 4821-0937-5526-1184.
func (s *RewardService) generatePinNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%04d-%04d-%04d-%04d",
		s.rng.Intn(10000), s.rng.Intn(10000), s.rng.Intn(10000), s.rng.Intn(10000))
}

// Redeem marks a pin used. A pin redeems at most once; expiry wins over
// redemption at the exact boundary instant.
func (s *RewardService) Redeem(pinNumber string) (*models.RewardPin, error) {
	pin, err := s.store.PinByNumber(pinNumber)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInvalidCode
	}
	if err != nil {
		return nil, err
	}

	if pin.IsUsed {
		return nil, common.ErrAlreadyUsed
	}

	now := s.now()
	if pin.IsExpiredAt(now) {
		return nil, common.ErrExpired
	}

	usedAt := now.Unix()
	won, err := s.store.MarkPinUsed(pin.ID, usedAt)
	if err != nil {
		return nil, err
	}
	if !won {
		// Someone else redeemed between our read and the update.
		return nil, common.ErrAlreadyUsed
	}

	pin.IsUsed = true
	pin.UsedAt = &usedAt
	return pin, nil
}

// RewardsForUser lists a user's rewards, optionally filtered by status.
func (s *RewardService) RewardsForUser(userID, status string) ([]models.Reward, error) {
	if status == "" {
		return s.store.RewardsByUser(userID)
	}
	if status != models.RewardStatusPending && status != models.RewardStatusApproved && status != models.RewardStatusRejected {
		return nil, fmt.Errorf("unknown reward status %q: %w", status, common.ErrValidation)
	}
	return s.store.RewardsByUserAndStatus(userID, status)
}

// RewardWithPin fetches a reward and its pin, enforcing ownership.
func (s *RewardService) RewardWithPin(userID, rewardID string) (*models.Reward, *models.RewardPin, error) {
	reward, err := s.store.RewardByID(rewardID)
	if err != nil {
		return nil, nil, err
	}
	if reward.UserID != userID {
		return nil, nil, common.ErrForbidden
	}

	pin, err := s.store.PinByReward(rewardID)
	if errors.Is(err, common.ErrNotFound) {
		return reward, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	return reward, pin, nil
}

// PinsForUser lists a user's pins, optionally filtered to available
// (unused, unexpired) or used ones.
func (s *RewardService) PinsForUser(userID, filter string) ([]models.RewardPin, error) {
	pins, err := s.store.PinsByUser(userID)
	if err != nil {
		return nil, err
	}

	if filter == "" {
		return pins, nil
	}

	now := s.now()
	filtered := make([]models.RewardPin, 0, len(pins))
	for _, p := range pins {
		switch filter {
		case "available":
			if p.IsAvailableAt(now) {
				filtered = append(filtered, p)
			}
		case "used":
			if p.IsUsed {
				filtered = append(filtered, p)
			}
		default:
			return nil, fmt.Errorf("unknown pin filter %q: %w", filter, common.ErrValidation)
		}
	}

	return filtered, nil
}
