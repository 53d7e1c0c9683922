package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bryanb141518/api-profecional/internal/queue"
)

type fakeCleaner struct {
	cutoff time.Time
	calls  int
	err    error
}

func (f *fakeCleaner) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return 3, f.err
}

func TestProcessorCleanup(t *testing.T) {
	now := time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)
	cleaner := &fakeCleaner{}
	p := NewProcessor(cleaner, zerolog.Nop())
	p.now = func() time.Time { return now }

	err := p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]interface{}{
		"type":       queue.EventSessionsCleanup,
		"occurredAt": now.Format(time.RFC3339Nano),
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, cleaner.calls)
	assert.True(t, now.Equal(cleaner.cutoff))
}

func TestProcessorCleanupError(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("db down")}
	p := NewProcessor(cleaner, zerolog.Nop())

	err := p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]interface{}{
		"type": queue.EventSessionsCleanup,
	}})
	assert.EqualError(t, err, "db down")
}

func TestProcessorIgnoresUnknownAndRegistered(t *testing.T) {
	cleaner := &fakeCleaner{}
	p := NewProcessor(cleaner, zerolog.Nop())

	require.NoError(t, p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]interface{}{
		"type": "something.else",
	}}))
	require.NoError(t, p.Handle(context.Background(), redis.XMessage{ID: "2-0", Values: map[string]interface{}{
		"type":   queue.EventUserRegistered,
		"userId": "u1",
	}}))
	assert.Zero(t, cleaner.calls)
}

func TestProcessorRejectsMalformed(t *testing.T) {
	p := NewProcessor(&fakeCleaner{}, zerolog.Nop())
	err := p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]interface{}{}})
	assert.Error(t, err)
}
