package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Envelope is the wire form of a broadcast event.
type Envelope struct {
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// RedisBroadcaster republishes events on Redis pub/sub so other processes
// (notification workers, dashboards) can follow session lifecycles.
type RedisBroadcaster struct {
	client *redis.Client
	prefix string
}

func NewRedisBroadcaster(client *redis.Client, prefix string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, prefix: prefix}
}

func (b *RedisBroadcaster) Channel(eventType string) string {
	return b.prefix + ":" + eventType
}

func (b *RedisBroadcaster) Handle(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	data, err := json.Marshal(Envelope{
		Type:        ev.EventType(),
		AggregateID: ev.AggregateID(),
		OccurredAt:  ev.OccurredAt(),
		Payload:     payload,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	if err := b.client.Publish(ctx, b.Channel(ev.EventType()), data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
