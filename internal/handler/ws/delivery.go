package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/echo-chat/relay-service/internal/domain/registry"
	wsmarshaller "github.com/echo-chat/relay-service/internal/handler/marshaller/ws"
	"github.com/echo-chat/relay-service/internal/service"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 64 << 10
)

type WSHandler struct {
	logger    *slog.Logger
	auth      service.Auther
	deliverer service.Deliverer
	router    service.Router
	upgrader  websocket.Upgrader
}

func NewWSHandler(logger *slog.Logger, auth service.Auther, deliverer service.Deliverer, router service.Router) *WSHandler {
	return &WSHandler{
		logger:    logger,
		auth:      auth,
		deliverer: deliverer,
		router:    router,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Security: adjust for production
		},
	}
}

// ServeHTTP runs the full connection lifecycle:
// Connecting -> Authenticating -> Open -> Closed.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	credential := bearerCredential(r)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", slog.Any("err", err))
		return
	}
	defer ws.Close()

	sess := &session{h: h, ws: ws, logger: h.logger}
	defer sess.detach()

	// Gate call site one: handshake credential. Failure closes the
	// transport with a distinguishable close reason before any
	// registration happens.
	if credential != "" {
		identity, err := h.auth.Resolve(r.Context(), credential)
		if err != nil {
			sess.closeWith(websocket.ClosePolicyViolation, "invalid credential")
			return
		}
		sess.attach(r.Context(), identity)
	}

	sess.readLoop(r.Context())
}

// bearerCredential extracts the raw credential from the query parameter
// or the Authorization header.
func bearerCredential(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return r.Header.Get("Authorization")
}

// session is the per-connection state. attach and readLoop run on the
// request goroutine; the write pump is the only other writer and
// serializes through writeMu.
type session struct {
	h      *WSHandler
	ws     *websocket.Conn
	logger *slog.Logger

	identity *model.Identity
	conn     registry.Connector

	writeMu    sync.Mutex
	detachOnce sync.Once
}

// attach resolves registration: the session joins the registry and starts
// draining its mailbox onto the wire.
func (s *session) attach(ctx context.Context, identity model.Identity) {
	conn, err := s.h.deliverer.Subscribe(ctx, identity)
	if err != nil {
		s.logger.Error("subscription rejected", slog.Any("err", err))
		return
	}

	s.identity = &identity
	s.conn = conn
	s.logger = s.h.logger.With(
		slog.Int64("user_id", identity.ID),
		slog.String("conn_id", conn.GetID().String()),
	)

	go s.writePump(conn.Recv())

	welcome := model.NewEvent(identity.ID, model.Connected, model.PriorityNormal, &model.ConnectedPayload{
		Ok:            true,
		ConnectionID:  conn.GetID().String(),
		ServerVersion: model.ServerVersion,
	})
	conn.Send(welcome, writeWait)

	s.logger.Info("ws session established")
}

// detach deregisters exactly once, even when close is detected from both
// the read error and the deferred cleanup concurrently.
func (s *session) detach() {
	s.detachOnce.Do(func() {
		if s.conn == nil {
			return
		}
		s.h.deliverer.Unsubscribe(*s.identity, s.conn.GetID())
		s.conn.Close()
		s.logger.Info("ws session closed")
	})
}

// readLoop decodes inbound frames and pushes them into the router
// synchronously, which preserves per-connection ordering end to end.
func (s *session) readLoop(ctx context.Context) {
	s.ws.SetReadLimit(maxFrameSize)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			s.logger.Debug("ws read ended", slog.Any("reason", err))
			return
		}

		_, frame, err := model.DecodeFrame(data)
		if err != nil {
			s.sendError(err)
			continue
		}

		if cf, ok := frame.(*model.ConnectFrame); ok {
			s.handleConnect(ctx, cf)
			continue
		}

		if s.identity == nil {
			// Traffic on an unauthenticated stream is rejected; the
			// connection itself stays open.
			s.sendError(model.ErrUnauthenticated)
			continue
		}

		if err := s.h.router.Route(ctx, *s.identity, frame); err != nil {
			s.sendError(err)
		}
	}
}

// handleConnect is gate call site two: in-stream authentication. Failure
// silently drops the attachment but does not close the transport.
func (s *session) handleConnect(ctx context.Context, cf *model.ConnectFrame) {
	if s.identity != nil {
		return
	}

	identity, err := s.h.auth.Resolve(ctx, cf.Token)
	if err != nil {
		s.logger.Debug("in-stream authentication failed", slog.Any("err", err))
		return
	}

	s.attach(ctx, identity)
}

// writePump drains the session mailbox onto the wire and keeps the
// connection alive with pings.
func (s *session) writePump(recv <-chan model.Eventer) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-recv:
			if !ok {
				// Mailbox closed server-side: push a final goodbye
				// before the transport goes away.
				goodbye := model.NewEvent(0, model.Disconnected, model.PriorityHigh, &model.DisconnectedPayload{
					Reason: "session_closed_by_server",
				})
				if data, err := wsmarshaller.MarshallDeliveryEvent(goodbye); err == nil {
					_ = s.write(websocket.TextMessage, data)
				}
				return
			}

			data, err := wsmarshaller.MarshallDeliveryEvent(ev)
			if err != nil {
				s.logger.Error("failed to marshal ws event", slog.Any("err", err))
				continue
			}

			if err := s.write(websocket.TextMessage, data); err != nil {
				s.logger.Warn("ws send failed", slog.Any("err", err))
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := s.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// sendError reports a routing failure to this sender only; the would-be
// recipient never observes the denial.
func (s *session) sendError(routeErr error) {
	ev := model.NewEvent(0, model.ErrorNotice, model.PriorityHigh, &model.ErrorPayload{
		Code:   model.ErrorCode(routeErr),
		Reason: publicReason(routeErr),
	})

	data, err := wsmarshaller.MarshallDeliveryEvent(ev)
	if err != nil {
		return
	}
	if err := s.write(websocket.TextMessage, data); err != nil {
		s.logger.Warn("ws error notice failed", slog.Any("err", err))
	}
}

// publicReason keeps collaborator internals out of client-visible errors.
func publicReason(err error) string {
	if model.ErrorCode(err) == "DELIVERY_FAILED" {
		return "delivery failed"
	}
	return err.Error()
}

func (s *session) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return s.ws.WriteMessage(messageType, data)
}

func (s *session) closeWith(code int, reason string) {
	deadline := time.Now().Add(writeWait)
	_ = s.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}
