package service

import (
	"context"
	"log/slog"

	"github.com/echo-chat/relay-service/internal/adapter/pubsub"
	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/echo-chat/relay-service/internal/domain/registry"
)

// Broadcaster publishes presence transitions and advertised statuses to
// every online session. Registry transitions trigger UserOnline and
// UserOffline exactly once per actual first-in/last-out change; Status
// relays client-submitted frames verbatim.
type Broadcaster interface {
	UserOnline(ctx context.Context, identity model.Identity)
	UserOffline(ctx context.Context, identity model.Identity)
	Status(ctx context.Context, userID int64, status string)
}

// Interface guard
var _ Broadcaster = (*PresenceBroadcaster)(nil)

type PresenceBroadcaster struct {
	hub        registry.Hubber
	dispatcher pubsub.EventDispatcher
	logger     *slog.Logger
}

func NewPresenceBroadcaster(hub registry.Hubber, dispatcher pubsub.EventDispatcher, logger *slog.Logger) *PresenceBroadcaster {
	return &PresenceBroadcaster{
		hub:        hub,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (b *PresenceBroadcaster) UserOnline(ctx context.Context, identity model.Identity) {
	b.Status(ctx, identity.ID, model.StatusOnline)
	b.broadcastRoster(ctx)
}

func (b *PresenceBroadcaster) UserOffline(ctx context.Context, identity model.Identity) {
	b.Status(ctx, identity.ID, model.StatusOffline)
	b.broadcastRoster(ctx)
}

// Status fans a presence payload out to all online sessions, including
// the triggering one. Presence is not sensitive, so no authorization
// check applies.
func (b *PresenceBroadcaster) Status(ctx context.Context, userID int64, status string) {
	payload := &model.PresencePayload{UserID: userID, Status: status}
	ev := model.NewEvent(userID, model.PresenceChanged, model.PriorityLow, payload).
		WithRoutingKey(model.PresenceTopic)

	b.hub.DeliverAll(ev)

	if err := b.dispatcher.Publish(ctx, ev); err != nil {
		b.logger.Warn("presence publish failed", slog.Any("err", err))
	}
}

// broadcastRoster sends the full online-user snapshot on every registry
// transition so clients can redraw their user list.
func (b *PresenceBroadcaster) broadcastRoster(ctx context.Context) {
	identities := b.hub.Identities()
	users := make([]string, 0, len(identities))
	for _, id := range identities {
		users = append(users, id.Username)
	}

	ev := model.NewEvent(0, model.OnlineRoster, model.PriorityLow, &model.RosterPayload{Users: users}).
		WithRoutingKey(model.PresenceTopic)

	b.hub.DeliverAll(ev)

	if err := b.dispatcher.Publish(ctx, ev); err != nil {
		b.logger.Warn("roster publish failed", slog.Any("err", err))
	}
}
