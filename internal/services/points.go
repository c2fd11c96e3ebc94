package services

import (
	"fmt"

	"hamkae-backend/internal/models"
)

// PointsStore is the slice of the store the points service needs.
type PointsStore interface {
	CreditUser(userID string, points int, description string, relatedPhotoID *string) (*models.PointHistory, error)
	DebitUser(userID string, points int, description string) (*models.PointHistory, error)
	UserBalance(userID string) (int, error)
	TotalEarnedPoints(userID string) (int, error)
	TotalUsedPoints(userID string) (int, error)
}

// PointsService applies the award policy on top of the ledger: a base
// award per verified cleanup plus a bonus when the judge's confidence
// clears the threshold.
type PointsService struct {
	store     PointsStore
	base      int
	bonus     int
	threshold float64
}

func NewPointsService(store PointsStore, base, bonus int, threshold float64) *PointsService {
	return &PointsService{
		store:     store,
		base:      base,
		bonus:     bonus,
		threshold: threshold,
	}
}

// AwardForCleanup computes the award for a verified cleanup at the
// given confidence.
func (s *PointsService) AwardForCleanup(confidence float64) int {
	points := s.base
	if confidence >= s.threshold {
		points += s.bonus
	}
	return points
}

// CreditForCleanup credits the uploader for an approved cleanup,
// linking the ledger entry to the verified photo.
func (s *PointsService) CreditForCleanup(userID, photoID string, confidence float64) (*models.PointHistory, error) {
	points := s.AwardForCleanup(confidence)
	description := fmt.Sprintf("Cleanup verified (confidence: %.0f%%)", confidence*100)
	return s.store.CreditUser(userID, points, description, &photoID)
}

// Credit appends an earned entry outside the cleanup flow (e.g. the
// compensation path restoring a failed exchange).
func (s *PointsService) Credit(userID string, points int, description string) (*models.PointHistory, error) {
	return s.store.CreditUser(userID, points, description, nil)
}

// Debit spends points, failing with common.ErrInsufficientBalance when
// the balance does not cover the amount.
func (s *PointsService) Debit(userID string, points int, description string) (*models.PointHistory, error) {
	return s.store.DebitUser(userID, points, description)
}

// Statistics aggregates a user's ledger.
func (s *PointsService) Statistics(userID string) (*models.PointStatistics, error) {
	earned, err := s.store.TotalEarnedPoints(userID)
	if err != nil {
		return nil, err
	}
	used, err := s.store.TotalUsedPoints(userID)
	if err != nil {
		return nil, err
	}
	balance, err := s.store.UserBalance(userID)
	if err != nil {
		return nil, err
	}

	return &models.PointStatistics{
		TotalEarned:     earned,
		TotalUsed:       used,
		CurrentPoints:   balance,
		AvailablePoints: balance,
	}, nil
}
