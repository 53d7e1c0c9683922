// Package queue moves domain events through a redis stream consumed by the
// worker process.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	EventUserRegistered  = "user.registered"
	EventSessionsCleanup = "sessions.cleanup"
)

type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (e Event) values() map[string]any {
	values := map[string]any{
		"type":       e.Type,
		"occurredAt": e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if e.UserID != "" {
		values["userId"] = e.UserID
	}
	return values
}

// DecodeEvent rebuilds an Event from stream message values.
func DecodeEvent(values map[string]interface{}) (Event, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return Event{}, err
	}
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, err
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("event without type")
	}
	return event, nil
}

type Publisher struct {
	client *redis.Client
	stream string
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: event.values(),
	}).Result()
	return err
}
