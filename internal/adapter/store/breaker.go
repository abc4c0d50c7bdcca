// Package store decorates the message-store collaborator with a circuit
// breaker so a failing storage backend degrades to per-event delivery
// failures instead of piling up blocked connections.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/echo-chat/relay-service/internal/service"
	"github.com/sony/gobreaker"
)

// Interface guard
var _ service.MessageStore = (*Breaker)(nil)

type Breaker struct {
	next service.MessageStore
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(next service.MessageStore, logger *slog.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "message-store",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("message store breaker state change",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Persist(ctx context.Context, rec *model.MessageRecord) (*model.MessageRecord, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Persist(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return res.(*model.MessageRecord), nil
}

func (b *Breaker) FindByID(ctx context.Context, id int64) (*model.MessageRecord, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(*model.MessageRecord), nil
}

func (b *Breaker) AppendReaction(ctx context.Context, rec *model.ReactionRecord) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.AppendReaction(ctx, rec)
	})
	return err
}
