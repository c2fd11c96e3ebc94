package database

import (
	"database/sql"
	"fmt"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/models"
)

// CreatePhoto inserts a new photo row in pending state.
func (s *Store) CreatePhoto(p *models.Photo) error {
	query := `
		INSERT INTO photos (id, marker_id, user_id, image_path, type, verification_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(query,
		p.ID, p.MarkerID, p.UserID, p.ImagePath, p.Type, p.VerificationStatus, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}

	return nil
}

// PhotoByID fetches a single photo.
func (s *Store) PhotoByID(id string) (*models.Photo, error) {
	var photo models.Photo
	err := s.db.Get(&photo, `SELECT * FROM photos WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &photo, nil
}

// PhotosByMarker returns all photos of a marker, oldest first.
func (s *Store) PhotosByMarker(markerID string) ([]models.Photo, error) {
	var photos []models.Photo
	err := s.db.Select(&photos, `
		SELECT * FROM photos
		WHERE marker_id = $1
		ORDER BY created_at ASC, id ASC
	`, markerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get photos: %w", err)
	}
	return photos, nil
}

// PhotosByMarkerAndType returns a marker's photos of one kind in
// deterministic order (created_at, then id). The orchestrator relies on
// this ordering to always pick the same representative pair.
func (s *Store) PhotosByMarkerAndType(markerID, photoType string) ([]models.Photo, error) {
	var photos []models.Photo
	err := s.db.Select(&photos, `
		SELECT * FROM photos
		WHERE marker_id = $1 AND type = $2
		ORDER BY created_at ASC, id ASC
	`, markerID, photoType)
	if err != nil {
		return nil, fmt.Errorf("failed to get photos by type: %w", err)
	}
	return photos, nil
}

// ApplyVerdict moves a pending photo to approved or rejected and stores
// the judge output. Returns false when the photo is no longer pending;
// the WHERE clause is the single-flight guard, so two concurrent
// verification runs can never both win.
func (s *Store) ApplyVerdict(photoID, status, judgeResponse string, confidence *float64, verifiedAt int64) (bool, error) {
	result, err := s.db.Exec(`
		UPDATE photos
		SET verification_status = $1,
		    judge_response = $2,
		    confidence = $3,
		    verified_at = $4
		WHERE id = $5 AND verification_status = 'pending'
	`, status, judgeResponse, confidence, verifiedAt, photoID)
	if err != nil {
		return false, fmt.Errorf("failed to apply verdict: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// CountPhotosByMarkerAndType counts photos of one kind on a marker.
func (s *Store) CountPhotosByMarkerAndType(markerID, photoType string) (int, error) {
	var count int
	err := s.db.Get(&count, `
		SELECT COUNT(*) FROM photos WHERE marker_id = $1 AND type = $2
	`, markerID, photoType)
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return count, nil
}
