package supabase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

const eventsTable = "generation_events"

type generationEvent struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

// RealtimeClient publishes run events by inserting rows into the
// generation_events table, which Supabase Realtime broadcasts to subscribers.
type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(ctx context.Context, channel string, event string, payload map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := generationEvent{Channel: channel, Event: event, Payload: payload}
	if _, _, err := r.client.From(eventsTable).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("failed to publish %s on %s: %w", event, channel, err)
	}
	return nil
}

func (r *RealtimeClient) PublishProjectEvent(ctx context.Context, projectID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("project:%s", projectID.String())
	return r.PublishEvent(ctx, channel, event, payload)
}
