package services

import (
	"errors"
	"testing"

	"hamkae-backend/internal/common"
)

func TestAwardForCleanup(t *testing.T) {
	points := NewPointsService(newMemStore(), 100, 20, 0.8)

	cases := []struct {
		confidence float64
		want       int
	}{
		{0.0, 100},
		{0.79, 100},
		{0.8, 120}, // threshold is inclusive
		{1.0, 120},
	}

	for _, tc := range cases {
		if got := points.AwardForCleanup(tc.confidence); got != tc.want {
			t.Errorf("AwardForCleanup(%.2f) = %d, want %d", tc.confidence, got, tc.want)
		}
	}
}

func TestCreditAndDebitKeepLedgerConsistent(t *testing.T) {
	store := newMemStore()
	user := store.addUser(0)
	points := NewPointsService(store, 100, 20, 0.8)

	if _, err := points.CreditForCleanup(user.ID, "photo-1", 0.9); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := points.Debit(user.ID, 50, "exchange"); err != nil {
		t.Fatalf("debit: %v", err)
	}

	balance, _ := store.UserBalance(user.ID)
	if balance != 70 {
		t.Errorf("expected balance 70, got %d", balance)
	}
	if replay := store.replayBalance(user.ID); replay != balance {
		t.Errorf("ledger replay %d does not match cache %d", replay, balance)
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	store := newMemStore()
	user := store.addUser(30)
	points := NewPointsService(store, 100, 20, 0.8)

	_, err := points.Debit(user.ID, 50, "exchange")
	if !errors.Is(err, common.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// A failed debit must not touch balance or ledger.
	if balance, _ := store.UserBalance(user.ID); balance != 30 {
		t.Errorf("expected balance unchanged at 30, got %d", balance)
	}
	if len(store.ledgerEntries(user.ID)) != 0 {
		t.Error("failed debit must not append a ledger entry")
	}
}

func TestStatistics(t *testing.T) {
	store := newMemStore()
	user := store.addUser(0)
	points := NewPointsService(store, 100, 20, 0.8)

	points.CreditForCleanup(user.ID, "photo-1", 0.9) // +120
	points.CreditForCleanup(user.ID, "photo-2", 0.5) // +100
	points.Debit(user.ID, 80, "exchange")

	stats, err := points.Statistics(user.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}

	if stats.TotalEarned != 220 {
		t.Errorf("total earned = %d, want 220", stats.TotalEarned)
	}
	if stats.TotalUsed != 80 {
		t.Errorf("total used = %d, want 80", stats.TotalUsed)
	}
	if stats.CurrentPoints != 140 {
		t.Errorf("current points = %d, want 140", stats.CurrentPoints)
	}
	if stats.AvailablePoints != stats.CurrentPoints {
		t.Error("available points must equal current points")
	}
}
