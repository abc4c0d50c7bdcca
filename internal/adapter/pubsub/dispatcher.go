package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/echo-chat/relay-service/internal/domain/model"
)

// EventDispatcher is the high-level contract for out-of-band event
// publishing. Handlers and services stay agnostic of the transport.
type EventDispatcher interface {
	Publish(ctx context.Context, ev model.Eventer) error
}

// Interface guard
var _ EventDispatcher = (*eventDispatcher)(nil)

type eventDispatcher struct {
	publisher message.Publisher
}

func NewEventDispatcher(pub message.Publisher) EventDispatcher {
	return &eventDispatcher{
		publisher: pub,
	}
}

// busEvent is the wire form of an exported event. The topic doubles as
// the routing key, so any out-of-band subscriber can tap exactly one
// conversation (chat/{min}_{max}), presence, or one identity's
// notifications.
type busEvent struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	OccurredAt int64  `json:"occurred_at"`
	Payload    any    `json:"payload"`
}

// Publish forwards the event to its routing key. Events without one are
// local-only and skipped.
func (d *eventDispatcher) Publish(ctx context.Context, ev model.Eventer) error {
	if ev == nil {
		return fmt.Errorf("event dispatcher: cannot publish nil event")
	}

	exportable, ok := ev.(model.Exportable)
	if !ok {
		return nil
	}
	topic := exportable.GetRoutingKey()
	if topic == "" {
		return nil
	}

	payload, err := json.Marshal(&busEvent{
		ID:         ev.GetID(),
		Kind:       ev.GetKind().String(),
		OccurredAt: ev.GetOccurredAt(),
		Payload:    ev.GetPayload(),
	})
	if err != nil {
		return fmt.Errorf("event dispatcher: marshal failure: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := d.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("event dispatcher: failed to publish to topic %s: %w", topic, err)
	}

	return nil
}
