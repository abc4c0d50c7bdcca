package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/echo-chat/relay-service/internal/adapter/pubsub"
	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/echo-chat/relay-service/internal/domain/registry"
)

// Router is the single dispatch point from a decoded inbound frame to the
// set of delivered outbound events. The sender identity always comes from
// the authenticated session context, never from the frame.
type Router interface {
	Route(ctx context.Context, sender model.Identity, frame any) error
}

// Interface guard
var _ Router = (*MessageRouter)(nil)

type MessageRouter struct {
	hub        registry.Hubber
	guard      Guard
	directory  Directory
	store      MessageStore
	graph      SocialGraph
	presence   Broadcaster
	dispatcher pubsub.EventDispatcher
	logger     *slog.Logger
}

func NewMessageRouter(
	hub registry.Hubber,
	guard Guard,
	directory Directory,
	store MessageStore,
	graph SocialGraph,
	presence Broadcaster,
	dispatcher pubsub.EventDispatcher,
	logger *slog.Logger,
) *MessageRouter {
	return &MessageRouter{
		hub:        hub,
		guard:      guard,
		directory:  directory,
		store:      store,
		graph:      graph,
		presence:   presence,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Route validates, authorizes and fans out one event. A returned error is
// surfaced to the sender only; delivery itself is best-effort and a
// recipient with zero sessions is not an error.
func (r *MessageRouter) Route(ctx context.Context, sender model.Identity, frame any) error {
	switch f := frame.(type) {
	case *model.MessageFrame:
		return r.routeDirect(ctx, sender, f)
	case *model.BroadcastFrame:
		return r.routeBroadcast(ctx, sender, f)
	case *model.ReactionFrame:
		return r.routeReaction(ctx, sender, f)
	case *model.PresenceFrame:
		r.routePresence(ctx, sender, f)
		return nil
	case *model.CallFrame:
		return r.routeCall(ctx, sender, f)
	default:
		return fmt.Errorf("%w: unroutable frame %T", model.ErrMalformedEvent, frame)
	}
}

// routeDirect persists an authorized direct message and delivers the
// finalized event to both sides of the conversation, so the sender's
// other devices stay in sync.
func (r *MessageRouter) routeDirect(ctx context.Context, sender model.Identity, f *model.MessageFrame) error {
	receiver, err := r.directory.Resolve(ctx, f.ReceiverID)
	if err != nil {
		return err
	}

	if err := r.guard.CanSend(ctx, sender.ID, receiver.ID); err != nil {
		return err
	}

	ts := f.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	receiverID := receiver.ID

	saved, err := r.store.Persist(ctx, &model.MessageRecord{
		SenderID:   sender.ID,
		ReceiverID: &receiverID,
		Content:    f.Content,
		MediaURL:   f.MediaURL,
		Timestamp:  ts,
	})
	if err != nil {
		return fmt.Errorf("persist message: %w", err)
	}

	topic := model.ConversationTopic(sender.ID, receiver.ID)
	payload := model.MessagePayload{
		ID:         saved.ID,
		SenderID:   sender.ID,
		SenderName: sender.Username,
		ReceiverID: saved.ReceiverID,
		Content:    saved.Content,
		MediaURL:   saved.MediaURL,
		Timestamp:  saved.Timestamp,
	}

	senderEv := model.NewEvent(sender.ID, model.MessageCreated, model.PriorityHigh, &payload).
		WithRoutingKey(topic)
	r.hub.Deliver(senderEv)

	if receiver.ID != sender.ID {
		// The receiving side gets its own copy carrying the advisory mute
		// flag; mutes affect display only, never delivery.
		receiverPayload := payload
		if muted, merr := r.graph.IsMuted(ctx, receiver.ID, sender.ID); merr == nil {
			receiverPayload.Muted = muted
		}
		r.hub.Deliver(model.NewEvent(receiver.ID, model.MessageCreated, model.PriorityHigh, &receiverPayload))
	}

	r.export(ctx, senderEv)
	return nil
}

// routeBroadcast persists a receiverless message and delivers it to every
// currently online session across all identities.
func (r *MessageRouter) routeBroadcast(ctx context.Context, sender model.Identity, f *model.BroadcastFrame) error {
	ts := f.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	saved, err := r.store.Persist(ctx, &model.MessageRecord{
		SenderID:  sender.ID,
		Content:   f.Content,
		Timestamp: ts,
	})
	if err != nil {
		return fmt.Errorf("persist broadcast: %w", err)
	}

	ev := model.NewEvent(sender.ID, model.MessageCreated, model.PriorityNormal, &model.MessagePayload{
		ID:         saved.ID,
		SenderID:   sender.ID,
		SenderName: sender.Username,
		Content:    saved.Content,
		Timestamp:  saved.Timestamp,
	}).WithRoutingKey(model.BroadcastTopic)

	r.hub.DeliverAll(ev)
	r.export(ctx, ev)
	return nil
}

// routeReaction appends a reaction to an existing message and delivers the
// resulting event to the original message's participants only.
func (r *MessageRouter) routeReaction(ctx context.Context, sender model.Identity, f *model.ReactionFrame) error {
	msg, err := r.store.FindByID(ctx, f.MessageID)
	if err != nil || msg == nil {
		return fmt.Errorf("%w: id %d", model.ErrUnknownMessage, f.MessageID)
	}

	rec := &model.ReactionRecord{
		MessageID: msg.ID,
		FromID:    sender.ID,
		Emoji:     f.Emoji,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := r.store.AppendReaction(ctx, rec); err != nil {
		return fmt.Errorf("append reaction: %w", err)
	}

	payload := &model.ReactionPayload{
		MessageID: msg.ID,
		FromID:    sender.ID,
		FromName:  sender.Username,
		Emoji:     f.Emoji,
		Timestamp: rec.Timestamp,
	}

	topic := model.NotificationsTopic(msg.SenderID)
	if msg.ReceiverID != nil {
		topic = model.ConversationTopic(msg.SenderID, *msg.ReceiverID)
	}

	ev := model.NewEvent(msg.SenderID, model.ReactionAdded, model.PriorityNormal, payload).
		WithRoutingKey(topic)
	r.hub.Deliver(ev)

	if msg.ReceiverID != nil && *msg.ReceiverID != msg.SenderID {
		r.hub.Deliver(model.NewEvent(*msg.ReceiverID, model.ReactionAdded, model.PriorityNormal, payload))
	}

	r.export(ctx, ev)
	return nil
}

// routePresence re-publishes a client-advertised status verbatim. Status
// is not sensitive, so no authorization check applies.
func (r *MessageRouter) routePresence(ctx context.Context, sender model.Identity, f *model.PresenceFrame) {
	userID := f.UserID
	if userID == 0 {
		userID = sender.ID
	}
	r.presence.Status(ctx, userID, f.Status)
}

// routeCall relays a signaling frame to the sessions of the `to` identity.
// ICE frames without a candidate are the end-of-candidates sentinel and
// are swallowed. The `from` field is relayed opaque and not verified
// against the authenticated session.
func (r *MessageRouter) routeCall(ctx context.Context, sender model.Identity, f *model.CallFrame) error {
	if f.Kind == model.CallIce && !f.HasCandidate() {
		r.logger.Debug("ignoring null ICE candidate", slog.Int64("to", f.To))
		return nil
	}

	if f.From != 0 && f.From != sender.ID {
		r.logger.Debug("call frame 'from' differs from authenticated identity",
			slog.Int64("from", f.From),
			slog.Int64("session_user", sender.ID),
		)
	}

	payload := &model.CallPayload{
		Kind:  f.Kind,
		From:  f.From,
		SDP:   f.SDP,
		Media: f.Media,
	}
	if f.Kind == model.CallIce {
		payload.Candidate = f.Candidate
	}

	ev := model.NewEvent(f.To, model.CallSignal, model.PriorityHigh, payload).
		WithRoutingKey(model.NotificationsTopic(f.To))
	r.hub.Deliver(ev)

	r.export(ctx, ev)
	return nil
}

// export publishes the event to the out-of-band bus. Bus failures never
// fail the triggering send.
func (r *MessageRouter) export(ctx context.Context, ev model.Eventer) {
	if err := r.dispatcher.Publish(ctx, ev); err != nil {
		r.logger.Warn("out-of-band publish failed",
			slog.String("event_id", ev.GetID()),
			slog.Any("err", err),
		)
	}
}
