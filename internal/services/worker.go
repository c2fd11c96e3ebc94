package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"hamkae-backend/internal/common"
	"hamkae-backend/internal/models"
)

// TaskStore is the slice of the store the worker needs.
type TaskStore interface {
	EnqueueVerificationTask(t *models.VerificationTask) error
	PendingVerificationTasks(limit int) ([]models.VerificationTask, error)
	CompleteVerificationTask(id string, processedAt int64) error
	RecordTaskFailure(id, lastError string, maxAttempts int) error
}

const taskBatchSize = 20

// VerificationWorker drains the durable verification task queue. Tasks
// are enqueued as rows; a channel wake-up gets new uploads verified
// quickly, and the periodic sweep (see internal/jobs) re-delivers
// whatever a crash or judge outage left pending. At-least-once delivery
// is safe because verdict application is idempotent downstream.
type VerificationWorker struct {
	store       TaskStore
	verifier    *VerificationService
	notify      chan struct{}
	maxAttempts int
}

func NewVerificationWorker(store TaskStore, verifier *VerificationService, maxAttempts int) *VerificationWorker {
	return &VerificationWorker{
		store:       store,
		verifier:    verifier,
		notify:      make(chan struct{}, 1),
		maxAttempts: maxAttempts,
	}
}

// Enqueue persists a verification task and wakes the worker.
func (w *VerificationWorker) Enqueue(markerID, uploaderID, photoKind string) error {
	task := &models.VerificationTask{
		ID:         uuid.New().String(),
		MarkerID:   markerID,
		UploaderID: uploaderID,
		PhotoKind:  photoKind,
		Status:     models.TaskStatusPending,
		CreatedAt:  time.Now().Unix(),
	}

	if err := w.store.EnqueueVerificationTask(task); err != nil {
		return err
	}

	w.Notify()
	return nil
}

// Notify wakes the worker without enqueueing anything. The sweep job
// calls this on its schedule; the send is non-blocking because one
// pending wake-up already covers everything in the table.
func (w *VerificationWorker) Notify() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Run processes tasks until the context is cancelled.
func (w *VerificationWorker) Run(ctx context.Context) {
	log.Println("🔍 verification worker started")

	// Pick up whatever a previous process left behind.
	w.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("verification worker stopped")
			return
		case <-w.notify:
			w.drain(ctx)
		}
	}
}

// drain processes pending tasks in batches until the table is empty or
// the context is cancelled.
func (w *VerificationWorker) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		tasks, err := w.store.PendingVerificationTasks(taskBatchSize)
		if err != nil {
			log.Printf("❌ failed to fetch pending verification tasks: %v", err)
			return
		}
		if len(tasks) == 0 {
			return
		}

		for _, task := range tasks {
			if ctx.Err() != nil {
				return
			}
			w.process(ctx, task)
		}

		if len(tasks) < taskBatchSize {
			return
		}
	}
}

func (w *VerificationWorker) process(ctx context.Context, task models.VerificationTask) {
	err := w.verifier.VerifyMarker(ctx, task.MarkerID, task.UploaderID)
	if err == nil {
		if err := w.store.CompleteVerificationTask(task.ID, time.Now().Unix()); err != nil {
			log.Printf("❌ failed to complete task %s: %v", task.ID, err)
		}
		return
	}

	if errors.Is(err, common.ErrJudgeUnavailable) {
		log.Printf("⚠️ judge unavailable for task %s, will retry: %v", task.ID, err)
	} else {
		log.Printf("❌ verification task %s failed: %v", task.ID, err)
	}

	if err := w.store.RecordTaskFailure(task.ID, err.Error(), w.maxAttempts); err != nil {
		log.Printf("❌ failed to record failure for task %s: %v", task.ID, err)
	}
}
