package service

import (
	"context"

	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/echo-chat/relay-service/internal/domain/registry"
	"github.com/google/uuid"
)

// Deliverer manages the session lifecycle for transport handlers. It
// couples registry transitions to presence broadcasting so online and
// offline fire exactly once per identity regardless of device count.
type Deliverer interface {
	Subscribe(ctx context.Context, identity model.Identity) (registry.Connector, error)
	Unsubscribe(identity model.Identity, connID uuid.UUID)
}

// Interface guard
var _ Deliverer = (*DeliveryService)(nil)

type DeliveryService struct {
	hub           registry.Hubber
	presence      Broadcaster
	sessionBuffer int
}

func NewDeliveryService(hub registry.Hubber, presence Broadcaster, sessionBuffer int) *DeliveryService {
	return &DeliveryService{
		hub:           hub,
		presence:      presence,
		sessionBuffer: sessionBuffer,
	}
}

// Subscribe creates a connector for the session and attaches it to the
// identity's cell. The first session of an identity triggers the online
// presence transition.
func (s *DeliveryService) Subscribe(ctx context.Context, identity model.Identity) (registry.Connector, error) {
	conn := registry.NewConnector(ctx, identity, s.sessionBuffer)

	if wentOnline := s.hub.Register(conn); wentOnline {
		s.presence.UserOnline(ctx, identity)
	}

	return conn, nil
}

// Unsubscribe detaches the session and closes it. Removing the last
// session of an identity triggers the offline presence transition; a
// duplicate close is a no-op.
func (s *DeliveryService) Unsubscribe(identity model.Identity, connID uuid.UUID) {
	wentOffline := s.hub.Unregister(identity.ID, connID)

	if wentOffline {
		s.presence.UserOffline(context.Background(), identity)
	}
}
