package service

import (
	"context"
	"log/slog"
)

// guardMiddleware logs every authorization verdict. It is layered onto
// the Guard via fx.Decorate so the policy implementation stays clean.
type guardMiddleware struct {
	next   Guard
	logger *slog.Logger
}

func (m *guardMiddleware) CanSend(ctx context.Context, senderID, receiverID int64) error {
	err := m.next.CanSend(ctx, senderID, receiverID)
	if err != nil {
		m.logger.Debug("direct send denied",
			slog.Int64("sender_id", senderID),
			slog.Int64("receiver_id", receiverID),
			slog.Any("reason", err),
		)
	}
	return err
}
