package services

import (
	"context"
	"errors"
	"testing"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/models"
)

// stubJudge returns a fixed verdict or error.
type stubJudge struct {
	verdict *Verdict
	err     error
	calls   int
}

func (s *stubJudge) Judge(ctx context.Context, beforeRef, afterRef, locationHint string) (*Verdict, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.verdict, nil
}

func newVerifier(store *memStore, judge Judge) (*VerificationService, *PointsService) {
	points := NewPointsService(store, 100, 20, 0.8)
	return NewVerificationService(store, judge, points), points
}

func TestVerifyMarkerApproved(t *testing.T) {
	store := newMemStore()
	reporter := store.addUser(0)
	cleaner := store.addUser(0)
	marker := store.addMarker(reporter.ID)
	store.addPhoto(marker.ID, reporter.ID, models.PhotoTypeBefore, 100)
	after := store.addPhoto(marker.ID, cleaner.ID, models.PhotoTypeAfter, 200)

	judge := &stubJudge{verdict: &Verdict{Result: VerdictApproved, Confidence: 0.85, Raw: `{"result":"approved"}`}}
	verifier, _ := newVerifier(store, judge)

	var event *VerdictEvent
	verifier.OnVerdict = func(e VerdictEvent) { event = &e }

	if err := verifier.VerifyMarker(context.Background(), marker.ID, cleaner.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	photo := store.photos[after.ID]
	if photo.VerificationStatus != models.VerificationApproved {
		t.Errorf("expected photo approved, got %s", photo.VerificationStatus)
	}
	if photo.JudgeResponse == nil || *photo.JudgeResponse == "" {
		t.Error("expected judge response persisted")
	}

	if store.markers[marker.ID].Status != models.MarkerStatusCleaned {
		t.Errorf("expected marker cleaned, got %s", store.markers[marker.ID].Status)
	}

	// 0.85 >= 0.8 threshold: base 100 + bonus 20.
	balance, _ := store.UserBalance(cleaner.ID)
	if balance != 120 {
		t.Errorf("expected 120 points credited, got %d", balance)
	}
	if store.replayBalance(cleaner.ID) != balance {
		t.Errorf("ledger replay %d does not match cached balance %d", store.replayBalance(cleaner.ID), balance)
	}

	entries := store.ledgerEntries(cleaner.ID)
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].RelatedPhotoID == nil || *entries[0].RelatedPhotoID != after.ID {
		t.Error("expected ledger entry linked to the verified photo")
	}

	if event == nil || !event.Approved || event.PointsAwarded != 120 {
		t.Errorf("unexpected verdict event: %+v", event)
	}
}

func TestVerifyMarkerLowConfidenceSkipsBonus(t *testing.T) {
	store := newMemStore()
	user := store.addUser(0)
	marker := store.addMarker(user.ID)
	store.addPhoto(marker.ID, user.ID, models.PhotoTypeBefore, 100)
	store.addPhoto(marker.ID, user.ID, models.PhotoTypeAfter, 200)

	judge := &stubJudge{verdict: &Verdict{Result: VerdictApproved, Confidence: 0.79, Raw: "{}"}}
	verifier, _ := newVerifier(store, judge)

	if err := verifier.VerifyMarker(context.Background(), marker.ID, user.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, _ := store.UserBalance(user.ID)
	if balance != 100 {
		t.Errorf("expected base award only, got %d", balance)
	}
}

func TestVerifyMarkerRejected(t *testing.T) {
	store := newMemStore()
	user := store.addUser(0)
	marker := store.addMarker(user.ID)
	store.addPhoto(marker.ID, user.ID, models.PhotoTypeBefore, 100)
	after := store.addPhoto(marker.ID, user.ID, models.PhotoTypeAfter, 200)

	judge := &stubJudge{verdict: &Verdict{Result: VerdictRejected, Confidence: 0.4, Raw: "{}"}}
	verifier, _ := newVerifier(store, judge)

	if err := verifier.VerifyMarker(context.Background(), marker.ID, user.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.photos[after.ID].VerificationStatus != models.VerificationRejected {
		t.Error("expected photo rejected")
	}
	if store.markers[marker.ID].Status != models.MarkerStatusActive {
		t.Error("rejection must leave the marker active")
	}
	if balance, _ := store.UserBalance(user.ID); balance != 0 {
		t.Errorf("rejection must not award points, got %d", balance)
	}
	if len(store.ledgerEntries(user.ID)) != 0 {
		t.Error("rejection must not append ledger entries")
	}
}

func TestVerifyMarkerIdempotent(t *testing.T) {
	store := newMemStore()
	user := store.addUser(0)
	marker := store.addMarker(user.ID)
	store.addPhoto(marker.ID, user.ID, models.PhotoTypeBefore, 100)
	store.addPhoto(marker.ID, user.ID, models.PhotoTypeAfter, 200)

	judge := &stubJudge{verdict: &Verdict{Result: VerdictApproved, Confidence: 0.9, Raw: "{}"}}
	verifier, _ := newVerifier(store, judge)

	// Re-delivered task: run twice.
	if err := verifier.VerifyMarker(context.Background(), marker.ID, user.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := verifier.VerifyMarker(context.Background(), marker.ID, user.ID); err != nil {
		t.Fatalf("second run: %v", err)
	}

	balance, _ := store.UserBalance(user.ID)
	if balance != 120 {
		t.Errorf("double delivery must award exactly once, got %d", balance)
	}
	if len(store.ledgerEntries(user.ID)) != 1 {
		t.Errorf("expected 1 ledger entry, got %d", len(store.ledgerEntries(user.ID)))
	}
}

func TestVerifyMarkerMissingPhotosIsNoop(t *testing.T) {
	store := newMemStore()
	user := store.addUser(0)
	marker := store.addMarker(user.ID)
	store.addPhoto(marker.ID, user.ID, models.PhotoTypeBefore, 100)
	// No after photo.

	judge := &stubJudge{verdict: &Verdict{Result: VerdictApproved, Confidence: 0.9, Raw: "{}"}}
	verifier, _ := newVerifier(store, judge)

	if err := verifier.VerifyMarker(context.Background(), marker.ID, user.ID); err != nil {
		t.Fatalf("missing photos must be a no-op, got %v", err)
	}
	if judge.calls != 0 {
		t.Error("judge must not be called without a photo pair")
	}
}

func TestVerifyMarkerJudgeUnavailableLeavesPending(t *testing.T) {
	store := newMemStore()
	user := store.addUser(0)
	marker := store.addMarker(user.ID)
	store.addPhoto(marker.ID, user.ID, models.PhotoTypeBefore, 100)
	after := store.addPhoto(marker.ID, user.ID, models.PhotoTypeAfter, 200)

	judge := &stubJudge{err: common.ErrJudgeUnavailable}
	verifier, _ := newVerifier(store, judge)

	err := verifier.VerifyMarker(context.Background(), marker.ID, user.ID)
	if !errors.Is(err, common.ErrJudgeUnavailable) {
		t.Fatalf("expected ErrJudgeUnavailable, got %v", err)
	}

	if store.photos[after.ID].VerificationStatus != models.VerificationPending {
		t.Error("judge outage must leave the photo pending for retry")
	}
	if balance, _ := store.UserBalance(user.ID); balance != 0 {
		t.Error("judge outage must not award points")
	}
}

func TestVerifyMarkerGoneIsNoop(t *testing.T) {
	store := newMemStore()
	judge := &stubJudge{verdict: &Verdict{Result: VerdictApproved, Confidence: 0.9, Raw: "{}"}}
	verifier, _ := newVerifier(store, judge)

	if err := verifier.VerifyMarker(context.Background(), "no-such-marker", "no-such-user"); err != nil {
		t.Fatalf("deleted marker must be a no-op, got %v", err)
	}
}

func TestWorkerProcessesTask(t *testing.T) {
	store := newMemStore()
	user := store.addUser(0)
	marker := store.addMarker(user.ID)
	store.addPhoto(marker.ID, user.ID, models.PhotoTypeBefore, 100)
	store.addPhoto(marker.ID, user.ID, models.PhotoTypeAfter, 200)

	judge := &stubJudge{verdict: &Verdict{Result: VerdictApproved, Confidence: 0.9, Raw: "{}"}}
	verifier, _ := newVerifier(store, judge)
	worker := NewVerificationWorker(store, verifier, 5)

	if err := worker.Enqueue(marker.ID, user.ID, models.PhotoTypeAfter); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	worker.drain(context.Background())

	for _, task := range store.tasks {
		if task.Status != models.TaskStatusDone {
			t.Errorf("expected task done, got %s", task.Status)
		}
	}
	if balance, _ := store.UserBalance(user.ID); balance != 120 {
		t.Errorf("expected award via worker, got %d", balance)
	}
}

func TestWorkerRetriesThenParksFailingTask(t *testing.T) {
	store := newMemStore()
	user := store.addUser(0)
	marker := store.addMarker(user.ID)
	store.addPhoto(marker.ID, user.ID, models.PhotoTypeBefore, 100)
	store.addPhoto(marker.ID, user.ID, models.PhotoTypeAfter, 200)

	judge := &stubJudge{err: common.ErrJudgeUnavailable}
	verifier, _ := newVerifier(store, judge)
	worker := NewVerificationWorker(store, verifier, 3)

	if err := worker.Enqueue(marker.ID, user.ID, models.PhotoTypeAfter); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// Each sweep burns one attempt while the judge stays down.
	for i := 0; i < 3; i++ {
		worker.drain(context.Background())
	}

	for _, task := range store.tasks {
		if task.Status != models.TaskStatusFailed {
			t.Errorf("expected task parked as failed after 3 attempts, got %s (attempts=%d)", task.Status, task.Attempts)
		}
		if task.LastError == nil {
			t.Error("expected last error recorded")
		}
	}
}
