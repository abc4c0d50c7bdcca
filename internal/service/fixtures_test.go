package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/echo-chat/relay-service/internal/adapter/memory"
	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/echo-chat/relay-service/internal/domain/registry"
	"github.com/echo-chat/relay-service/internal/service"
)

// capturingDispatcher records the routing keys of exported events instead
// of touching a real bus.
type capturingDispatcher struct {
	mu     sync.Mutex
	topics []string
}

func (d *capturingDispatcher) Publish(_ context.Context, ev model.Eventer) error {
	exportable, ok := ev.(model.Exportable)
	if !ok {
		return nil
	}
	if key := exportable.GetRoutingKey(); key != "" {
		d.mu.Lock()
		d.topics = append(d.topics, key)
		d.mu.Unlock()
	}
	return nil
}

func (d *capturingDispatcher) published() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.topics))
	copy(out, d.topics)
	return out
}

type relayFixture struct {
	db         *memory.DB
	hub        *registry.Hub
	dispatcher *capturingDispatcher
	presence   *service.PresenceBroadcaster
	deliverer  *service.DeliveryService
	router     *service.MessageRouter
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := memory.NewDB()
	hub := registry.NewHub()
	t.Cleanup(hub.Shutdown)

	dispatcher := &capturingDispatcher{}
	presence := service.NewPresenceBroadcaster(hub, dispatcher, logger)
	router := service.NewMessageRouter(
		hub,
		service.NewSocialGuard(memory.NewGraph(db)),
		service.NewUserDirectory(memory.NewUsers(db)),
		memory.NewMessages(db),
		memory.NewGraph(db),
		presence,
		dispatcher,
		logger,
	)

	return &relayFixture{
		db:         db,
		hub:        hub,
		dispatcher: dispatcher,
		presence:   presence,
		deliverer:  service.NewDeliveryService(hub, presence, 64),
		router:     router,
	}
}

// connect attaches a bare session straight to the hub, bypassing the
// delivery service so no presence traffic muddies router assertions.
func (f *relayFixture) connect(id int64, name string) registry.Connector {
	conn := registry.NewConnector(context.Background(), model.Identity{ID: id, Username: name}, 64)
	f.hub.Register(conn)
	return conn
}

func recvEvent(t *testing.T, conn registry.Connector) model.Eventer {
	t.Helper()
	select {
	case ev := <-conn.Recv():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertNoEvent(t *testing.T, conn registry.Connector) {
	t.Helper()
	select {
	case ev := <-conn.Recv():
		t.Fatalf("unexpected %s event delivered", ev.GetKind())
	case <-time.After(150 * time.Millisecond):
	}
}

// drainEvents collects everything the session receives within the window.
func drainEvents(conn registry.Connector, window time.Duration) []model.Eventer {
	var out []model.Eventer
	timer := time.NewTimer(window)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-conn.Recv():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timer.C:
			return out
		}
	}
}
