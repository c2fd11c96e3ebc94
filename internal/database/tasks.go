package database

import (
	"fmt"

	"hamkae-backend/internal/models"
)

// EnqueueVerificationTask persists a verification request so it
// survives restarts. The channel wake-up is an optimization on top of
// this row, not the source of truth.
func (s *Store) EnqueueVerificationTask(t *models.VerificationTask) error {
	query := `
		INSERT INTO verification_tasks (id, marker_id, uploader_id, photo_kind, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(query,
		t.ID, t.MarkerID, t.UploaderID, t.PhotoKind, t.Status, t.Attempts, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue verification task: %w", err)
	}

	return nil
}

// PendingVerificationTasks returns up to limit unprocessed tasks,
// oldest first.
func (s *Store) PendingVerificationTasks(limit int) ([]models.VerificationTask, error) {
	var tasks []models.VerificationTask
	err := s.db.Select(&tasks, `
		SELECT * FROM verification_tasks
		WHERE status = 'pending'
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending tasks: %w", err)
	}
	return tasks, nil
}

// CompleteVerificationTask marks a task done.
func (s *Store) CompleteVerificationTask(id string, processedAt int64) error {
	_, err := s.db.Exec(`
		UPDATE verification_tasks
		SET status = 'done', processed_at = $1
		WHERE id = $2
	`, processedAt, id)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	return nil
}

// RecordTaskFailure bumps the attempt counter and stores the error.
// The task stays pending for the next sweep until it has burned
// maxAttempts attempts, then it is parked as failed.
func (s *Store) RecordTaskFailure(id, lastError string, maxAttempts int) error {
	_, err := s.db.Exec(`
		UPDATE verification_tasks
		SET attempts = attempts + 1,
		    last_error = $1,
		    status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE 'pending' END
		WHERE id = $3
	`, lastError, maxAttempts, id)
	if err != nil {
		return fmt.Errorf("failed to record task failure: %w", err)
	}
	return nil
}
