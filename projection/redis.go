// Package projection contains ready-made event handlers maintaining read
// models from dispatched events.
package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"

	"github.com/go-mixins/eventflow"
)

// Redis keeps the latest observed event per aggregate under
// "<prefix>:<aggregateID>" and optionally publishes every update to a
// pub/sub channel. Writes are last-writer-wins per aggregate, so replaying
// history through it is safe.
type Redis struct {
	// TTL expires read-model keys; zero keeps them forever.
	TTL time.Duration
	// Channel, when set, receives the serialized update on every event.
	Channel string

	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

type cachedEvent struct {
	AggregateID string    `json:"aggregateId"`
	Version     int       `json:"version"`
	Type        string    `json:"type"`
	Event       any       `json:"event"`
	CachedAt    time.Time `json:"cachedAt"`
}

func (p *Redis) Handle(ctx context.Context, n eventflow.Notification) error {
	payload, err := json.Marshal(cachedEvent{
		AggregateID: n.AggregateID,
		Version:     n.AggregateVersion,
		Type:        eventflow.EventName(n.Event),
		Event:       n.Event,
		CachedAt:    p.now().UTC(),
	})
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s:%s", p.prefix, n.AggregateID)
	if err := p.client.Set(ctx, key, payload, p.TTL).Err(); err != nil {
		return fmt.Errorf("updating read model %s: %w", key, err)
	}
	if p.Channel == "" {
		return nil
	}
	if err := p.client.Publish(ctx, p.Channel, payload).Err(); err != nil {
		slog.ErrorCtx(ctx, "unable to publish read model update", "channel", p.Channel, "error", err)
	}
	return nil
}
