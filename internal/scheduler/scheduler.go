package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/quizmaster/internal/database"
)

// staleAfter is how long an incomplete session may linger before the sweep
// removes it. Completed sessions are history and are never touched.
const staleAfter = 24 * time.Hour

// Scheduler manages background maintenance for the application. Its one job
// sweeps abandoned sessions: rows created when a quiz started but whose
// process died before finish or reset.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sessions  *database.SessionRepository
}

// New creates a scheduler instance.
func New(sessions *database.SessionRepository) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sessions:  sessions,
	}
}

// Start begins running the maintenance jobs in the background.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Day().Do(func() {
		if err := s.Sweep(context.Background()); err != nil {
			log.Printf("Error sweeping stale sessions: %v", err)
		}
	})
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Sweep removes incomplete sessions older than the stale cutoff. It is also
// the manual trigger used by tests and one-off maintenance.
func (s *Scheduler) Sweep(ctx context.Context) error {
	removed, err := s.sessions.DeleteStaleIncomplete(ctx, time.Now().UTC().Add(-staleAfter))
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Printf("Swept %d stale incomplete sessions", removed)
	}
	return nil
}
