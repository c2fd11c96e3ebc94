// Package jobs runs the periodic background sweeps.
package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"hamkae-backend/internal/services"
)

// Scheduler wakes the verification worker on a fixed interval so tasks
// left pending by a crash or a judge outage get re-delivered.
type Scheduler struct {
	cron   *cron.Cron
	worker *services.VerificationWorker
}

func NewScheduler(worker *services.VerificationWorker) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		worker: worker,
	}
}

// Start registers the sweep and begins the cron loop.
func (s *Scheduler) Start(sweepInterval time.Duration) error {
	schedule := fmt.Sprintf("@every %s", sweepInterval)
	_, err := s.cron.AddFunc(schedule, func() {
		s.worker.Notify()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule verification sweep: %w", err)
	}

	s.cron.Start()
	log.Printf("⏰ verification sweep scheduled every %s", sweepInterval)
	return nil
}

// Stop halts the cron loop, waiting for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
