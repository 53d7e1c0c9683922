package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Bryanb141518/api-profecional/internal/queue"
)

type SessionCleaner interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Processor dispatches stream messages to the task for their event type.
type Processor struct {
	sessions SessionCleaner
	logger   zerolog.Logger
	now      func() time.Time
}

func NewProcessor(sessions SessionCleaner, logger zerolog.Logger) *Processor {
	return &Processor{
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	event, err := queue.DecodeEvent(msg.Values)
	if err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	switch event.Type {
	case queue.EventUserRegistered:
		return p.handleRegistered(event)
	case queue.EventSessionsCleanup:
		return p.handleCleanup(ctx)
	default:
		p.logger.Warn().Str("type", event.Type).Str("message_id", msg.ID).Msg("unknown event type")
		return nil
	}
}

func (p *Processor) handleRegistered(event queue.Event) error {
	p.logger.Info().
		Str("user_id", event.UserID).
		Time("registered_at", event.OccurredAt).
		Msg("user registered")
	return nil
}

func (p *Processor) handleCleanup(ctx context.Context) error {
	removed, err := p.sessions.DeleteExpired(ctx, p.now())
	if err != nil {
		return err
	}
	p.logger.Info().Int64("removed", removed).Msg("expired sessions removed")
	return nil
}
