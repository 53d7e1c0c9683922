package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Bryanb141518/api-profecional/internal/queue"
)

type EventPublisher interface {
	Publish(ctx context.Context, event queue.Event) error
}

// Scheduler enqueues periodic maintenance events for the worker.
type Scheduler struct {
	cron     *cron.Cron
	events   EventPublisher
	schedule string
	log      zerolog.Logger
}

// NewScheduler takes a six field cron spec (seconds first).
func NewScheduler(events EventPublisher, schedule string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		events:   events,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.events == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.enqueueCleanup); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueueCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.events.Publish(ctx, queue.Event{Type: queue.EventSessionsCleanup}); err != nil {
		s.log.Error().Err(err).Msg("enqueue session cleanup failed")
		return
	}
	s.log.Debug().Msg("session cleanup enqueued")
}
