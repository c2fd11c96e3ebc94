package services

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/models"
)

var pinFormat = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{4}$`)

func newRewardService(store *memStore, maxAttempts int) *RewardService {
	points := NewPointsService(store, 100, 20, 0.8)
	return NewRewardService(store, points, maxAttempts)
}

func TestExchangeHappyPath(t *testing.T) {
	store := newMemStore()
	user := store.addUser(500)
	rewards := newRewardService(store, 10)

	result, err := rewards.Exchange(user.ID, 300, "convenience_store")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}

	if result.Reward.Status != models.RewardStatusApproved {
		t.Errorf("expected approved reward, got %s", result.Reward.Status)
	}
	if result.Reward.ProcessedAt == nil {
		t.Error("expected processed_at set")
	}

	if !pinFormat.MatchString(result.Pin.PinNumber) {
		t.Errorf("pin %q does not match NNNN-NNNN-NNNN-NNNN", result.Pin.PinNumber)
	}
	if len(result.Pin.PinNumber) != models.PinNumberLength {
		t.Errorf("pin length %d, want %d", len(result.Pin.PinNumber), models.PinNumberLength)
	}

	wantExpiry := result.Pin.IssuedAt + int64(365*24*time.Hour/time.Second)
	if result.Pin.ExpiresAt != wantExpiry {
		t.Errorf("expiry %d, want issued + 1 year = %d", result.Pin.ExpiresAt, wantExpiry)
	}

	balance, _ := store.UserBalance(user.ID)
	if balance != 200 {
		t.Errorf("expected balance 200 after exchange, got %d", balance)
	}
}

func TestExchangeInsufficientBalance(t *testing.T) {
	store := newMemStore()
	user := store.addUser(100)
	rewards := newRewardService(store, 10)

	_, err := rewards.Exchange(user.ID, 300, "convenience_store")
	if !errors.Is(err, common.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	if balance, _ := store.UserBalance(user.ID); balance != 100 {
		t.Errorf("failed exchange must leave balance untouched, got %d", balance)
	}
	if len(store.rewards) != 0 || len(store.pins) != 0 {
		t.Error("failed exchange must not create rewards or pins")
	}
}

func TestExchangeValidation(t *testing.T) {
	store := newMemStore()
	user := store.addUser(500)
	rewards := newRewardService(store, 10)

	if _, err := rewards.Exchange(user.ID, 0, "x"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("zero points: expected ErrValidation, got %v", err)
	}
	if _, err := rewards.Exchange(user.ID, -5, "x"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("negative points: expected ErrValidation, got %v", err)
	}
	if _, err := rewards.Exchange(user.ID, 100, ""); !errors.Is(err, common.ErrValidation) {
		t.Errorf("empty type: expected ErrValidation, got %v", err)
	}
}

func TestExchangeRetriesOnCollision(t *testing.T) {
	store := newMemStore()
	user := store.addUser(500)

	// Codes are random, so a real collision cannot be staged; the
	// wrapper fails the first insert the way the unique index would.
	calls := 0
	seeded := &collidingStore{memStore: store, failures: 1, calls: &calls}

	points := NewPointsService(store, 100, 20, 0.8)
	svc := NewRewardService(seeded, points, 10)

	result, err := svc.Exchange(user.ID, 100, "bakery")
	if err != nil {
		t.Fatalf("exchange should survive a collision: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 insert attempts, got %d", calls)
	}
	if result.Pin == nil {
		t.Fatal("expected a pin after retry")
	}
}

// collidingStore fails the first N pin inserts with ErrDuplicateCode.
type collidingStore struct {
	*memStore
	failures int
	calls    *int
}

func (c *collidingStore) InsertPin(p *models.RewardPin) error {
	*c.calls++
	if c.failures > 0 {
		c.failures--
		return common.ErrDuplicateCode
	}
	return c.memStore.InsertPin(p)
}

func TestExchangeExhaustionCompensates(t *testing.T) {
	store := newMemStore()
	user := store.addUser(500)
	calls := 0
	seeded := &collidingStore{memStore: store, failures: 1 << 30, calls: &calls}

	points := NewPointsService(store, 100, 20, 0.8)
	svc := NewRewardService(seeded, points, 5)

	_, err := svc.Exchange(user.ID, 300, "convenience_store")
	if !errors.Is(err, common.ErrCodeGenerationExhausted) {
		t.Fatalf("expected ErrCodeGenerationExhausted, got %v", err)
	}
	if calls != 5 {
		t.Errorf("expected exactly 5 attempts, got %d", calls)
	}

	// The balance is restored by a compensating credit; the ledger
	// keeps both the debit and the refund.
	if balance, _ := store.UserBalance(user.ID); balance != 500 {
		t.Errorf("expected balance restored to 500, got %d", balance)
	}
	entries := store.ledgerEntries(user.ID)
	if len(entries) != 2 {
		t.Fatalf("expected debit + refund entries, got %d", len(entries))
	}
	if store.replayBalance(user.ID) != 500 {
		t.Errorf("ledger replay must also be 500, got %d", store.replayBalance(user.ID))
	}

	if len(store.rewards) != 0 {
		t.Error("failed exchange must delete the reward")
	}
}

func TestRedeemOnce(t *testing.T) {
	store := newMemStore()
	user := store.addUser(500)
	rewards := newRewardService(store, 10)

	result, err := rewards.Exchange(user.ID, 100, "bakery")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}

	pin, err := rewards.Redeem(result.Pin.PinNumber)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !pin.IsUsed || pin.UsedAt == nil {
		t.Error("expected pin marked used")
	}

	if _, err := rewards.Redeem(result.Pin.PinNumber); !errors.Is(err, common.ErrAlreadyUsed) {
		t.Fatalf("second redemption: expected ErrAlreadyUsed, got %v", err)
	}
}

func TestRedeemUnknownPin(t *testing.T) {
	rewards := newRewardService(newMemStore(), 10)

	if _, err := rewards.Redeem("0000-0000-0000-0000"); !errors.Is(err, common.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestRedeemExpiryBoundary(t *testing.T) {
	store := newMemStore()
	user := store.addUser(500)
	rewards := newRewardService(store, 10)

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rewards.now = func() time.Time { return issued }

	result, err := rewards.Exchange(user.ID, 100, "bakery")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}

	expiry := time.Unix(result.Pin.ExpiresAt, 0)

	// One second before expiry the pin still redeems.
	rewards.now = func() time.Time { return expiry.Add(-time.Second) }
	if _, err := rewards.Redeem(result.Pin.PinNumber); err != nil {
		t.Fatalf("redeem just before expiry: %v", err)
	}

	// A second pin expiring exactly now is already expired (inclusive
	// boundary).
	rewards.now = func() time.Time { return issued }
	second, err := rewards.Exchange(user.ID, 100, "bakery")
	if err != nil {
		t.Fatalf("second exchange: %v", err)
	}
	rewards.now = func() time.Time { return time.Unix(second.Pin.ExpiresAt, 0) }
	if _, err := rewards.Redeem(second.Pin.PinNumber); !errors.Is(err, common.ErrExpired) {
		t.Fatalf("expected ErrExpired at the exact boundary, got %v", err)
	}
}

func TestPinsForUserFilters(t *testing.T) {
	store := newMemStore()
	user := store.addUser(500)
	rewards := newRewardService(store, 10)

	first, err := rewards.Exchange(user.ID, 100, "bakery")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if _, err := rewards.Exchange(user.ID, 100, "cafe"); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if _, err := rewards.Redeem(first.Pin.PinNumber); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	available, err := rewards.PinsForUser(user.ID, "available")
	if err != nil {
		t.Fatalf("available filter: %v", err)
	}
	if len(available) != 1 {
		t.Errorf("expected 1 available pin, got %d", len(available))
	}

	used, err := rewards.PinsForUser(user.ID, "used")
	if err != nil {
		t.Fatalf("used filter: %v", err)
	}
	if len(used) != 1 {
		t.Errorf("expected 1 used pin, got %d", len(used))
	}

	if _, err := rewards.PinsForUser(user.ID, "bogus"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("bogus filter: expected ErrValidation, got %v", err)
	}
}
