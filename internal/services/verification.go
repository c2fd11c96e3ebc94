package services

import (
	"context"
	"errors"
	"log"
	"time"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/models"
)

// VerificationStore is the slice of the store the orchestrator needs.
type VerificationStore interface {
	MarkerByID(id string) (*models.Marker, error)
	PhotosByMarkerAndType(markerID, photoType string) ([]models.Photo, error)
	ApplyVerdict(photoID, status, judgeResponse string, confidence *float64, verifiedAt int64) (bool, error)
	MarkMarkerCleaned(id string, updatedAt int64) error
}

// Judge is the external verdict source. Implemented by JudgeClient in
// production and by fakes in tests.
type Judge interface {
	Judge(ctx context.Context, beforeRef, afterRef, locationHint string) (*Verdict, error)
}

// VerdictEvent is handed to OnVerdict after a verdict is committed.
type VerdictEvent struct {
	MarkerID      string
	PhotoID       string
	UploaderID    string
	Approved      bool
	Confidence    float64
	PointsAwarded int
}

// VerificationService runs a marker's photo pair through the judge and
// commits the outcome. The photo's pending state is the idempotency
// guard: whatever wins the ApplyVerdict update owns the side effects,
// so re-delivered tasks and concurrent runs cannot double-award.
type VerificationService struct {
	store  VerificationStore
	judge  Judge
	points *PointsService

	// OnVerdict, when set, is called after a verdict commits. Used for
	// push notifications and the live marker feed; failures there never
	// affect the verdict.
	OnVerdict func(VerdictEvent)
}

func NewVerificationService(store VerificationStore, judge Judge, points *PointsService) *VerificationService {
	return &VerificationService{
		store:  store,
		judge:  judge,
		points: points,
	}
}

// VerifyMarker verifies the earliest before/after pair of a marker.
//
// Missing photos make this a no-op rather than an error: the task that
// triggered us may have raced a deletion. A judge outage is returned
// unwrapped so the worker re-delivers; everything else resolves the
// photo one way or the other.
func (s *VerificationService) VerifyMarker(ctx context.Context, markerID, uploaderID string) error {
	marker, err := s.store.MarkerByID(markerID)
	if errors.Is(err, common.ErrNotFound) {
		log.Printf("marker %s gone before verification, skipping", markerID)
		return nil
	}
	if err != nil {
		return err
	}

	// A cleanup is awarded once per marker: anything still pending after
	// the marker left active (a second upload racing the first verdict)
	// is not judged again.
	if marker.Status != models.MarkerStatusActive {
		log.Printf("marker %s is %s, verification skipped", markerID, marker.Status)
		return nil
	}

	before, err := s.store.PhotosByMarkerAndType(markerID, models.PhotoTypeBefore)
	if err != nil {
		return err
	}
	after, err := s.store.PhotosByMarkerAndType(markerID, models.PhotoTypeAfter)
	if err != nil {
		return err
	}

	if len(before) == 0 || len(after) == 0 {
		log.Printf("marker %s missing a photo pair (before=%d after=%d), skipping",
			markerID, len(before), len(after))
		return nil
	}

	// Always the earliest pair, so retries judge the same evidence.
	beforePhoto := before[0]
	afterPhoto := s.firstPending(after)
	if afterPhoto == nil {
		log.Printf("marker %s has no pending after photo, skipping", markerID)
		return nil
	}

	locationHint := ""
	if marker.Address != nil {
		locationHint = *marker.Address
	}

	verdict, err := s.judge.Judge(ctx, beforePhoto.ImagePath, afterPhoto.ImagePath, locationHint)
	if err != nil {
		// Judge outage, not a rejection. Leave the photo pending so the
		// task is re-delivered.
		return err
	}

	status := models.VerificationRejected
	if verdict.Approved() {
		status = models.VerificationApproved
	}

	now := time.Now().Unix()
	won, err := s.store.ApplyVerdict(afterPhoto.ID, status, verdict.Raw, &verdict.Confidence, now)
	if err != nil {
		return err
	}
	if !won {
		log.Printf("photo %s no longer pending, verdict dropped", afterPhoto.ID)
		return nil
	}

	event := VerdictEvent{
		MarkerID:   markerID,
		PhotoID:    afterPhoto.ID,
		UploaderID: uploaderID,
		Approved:   verdict.Approved(),
		Confidence: verdict.Confidence,
	}

	if verdict.Approved() {
		if err := s.store.MarkMarkerCleaned(markerID, now); err != nil {
			log.Printf("❌ failed to mark marker %s cleaned: %v", markerID, err)
		}

		// The verdict is already committed; a failed credit is logged
		// and reconciled out of band, never rolled back into the photo.
		entry, err := s.points.CreditForCleanup(uploaderID, afterPhoto.ID, verdict.Confidence)
		if err != nil {
			log.Printf("❌ failed to credit user %s for photo %s: %v", uploaderID, afterPhoto.ID, err)
		} else {
			event.PointsAwarded = entry.Points
		}
	}

	log.Printf("✅ marker %s verdict: %s (confidence %.2f)", markerID, status, verdict.Confidence)

	if s.OnVerdict != nil {
		s.OnVerdict(event)
	}

	return nil
}

func (s *VerificationService) firstPending(photos []models.Photo) *models.Photo {
	for i := range photos {
		if photos[i].IsPending() {
			return &photos[i]
		}
	}
	return nil
}
