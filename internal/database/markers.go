package database

import (
	"database/sql"
	"fmt"
	"log"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/models"
)

// CreateMarker inserts a new litter report.
func (s *Store) CreateMarker(m *models.Marker) error {
	query := `
		INSERT INTO markers (id, lat, lng, description, address, status, reported_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(query,
		m.ID, m.Lat, m.Lng, m.Description, m.Address, m.Status, m.ReportedBy,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create marker: %w", err)
	}

	return nil
}

// MarkerByID fetches a single marker.
func (s *Store) MarkerByID(id string) (*models.Marker, error) {
	var marker models.Marker
	err := s.db.Get(&marker, `SELECT * FROM markers WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get marker: %w", err)
	}
	return &marker, nil
}

// ActiveMarkers returns all markers still awaiting cleanup, newest first.
func (s *Store) ActiveMarkers() ([]models.Marker, error) {
	var markers []models.Marker
	err := s.db.Select(&markers, `
		SELECT * FROM markers
		WHERE status = 'active'
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active markers: %w", err)
	}
	return markers, nil
}

// CleanedMarkers returns all markers with a verified cleanup, newest
// first.
func (s *Store) CleanedMarkers() ([]models.Marker, error) {
	var markers []models.Marker
	err := s.db.Select(&markers, `
		SELECT * FROM markers
		WHERE status = 'cleaned'
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get cleaned markers: %w", err)
	}
	return markers, nil
}

// MarkersByReporter returns every marker a user has reported.
func (s *Store) MarkersByReporter(userID string) ([]models.Marker, error) {
	var markers []models.Marker
	err := s.db.Select(&markers, `
		SELECT * FROM markers
		WHERE reported_by = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get markers by reporter: %w", err)
	}
	return markers, nil
}

// MarkersByReporterAndStatus filters a reporter's markers by status.
func (s *Store) MarkersByReporterAndStatus(userID, status string) ([]models.Marker, error) {
	var markers []models.Marker
	err := s.db.Select(&markers, `
		SELECT * FROM markers
		WHERE reported_by = $1 AND status = $2
		ORDER BY created_at DESC
	`, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get markers by status: %w", err)
	}
	return markers, nil
}

// MarkMarkerCleaned advances an active marker to cleaned. Already
// cleaned (or removed) markers are left untouched; status never moves
// backwards.
func (s *Store) MarkMarkerCleaned(id string, updatedAt int64) error {
	result, err := s.db.Exec(`
		UPDATE markers
		SET status = 'cleaned', updated_at = $1
		WHERE id = $2 AND status = 'active'
	`, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark marker cleaned: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		log.Printf("marker %s not active, cleaned transition skipped", id)
	}

	return nil
}

// MarkMarkerRemoved advances an active or cleaned marker to removed.
// Returns false when the marker was already removed.
func (s *Store) MarkMarkerRemoved(id string, updatedAt int64) (bool, error) {
	result, err := s.db.Exec(`
		UPDATE markers
		SET status = 'removed', updated_at = $1
		WHERE id = $2 AND status IN ('active', 'cleaned')
	`, updatedAt, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark marker removed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// DeleteMarker removes the marker row; photos and verification tasks
// cascade via foreign keys. Stored image files are the caller's problem
// (best-effort, see the marker handler).
func (s *Store) DeleteMarker(id string) error {
	result, err := s.db.Exec(`DELETE FROM markers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete marker: %w", err)
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
