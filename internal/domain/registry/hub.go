/*
Package registry is the source of truth for "who is online".

Every identity with at least one live session is represented by an
isolated Cell that owns all concurrent connections (multi-device) of that
user and delivers through a per-user mailbox, so a slow consumer never
blocks unrelated identities. Lookups are lock-free via sync.Map; mutation
goes through the atomic Register/Unregister operations, which also report
the first-in/last-out presence transitions exactly once.
*/
package registry

import (
	"sync"

	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/google/uuid"
)

// Hubber is the gateway for session management and event routing.
type Hubber interface {
	// Register adds a session under its identity. Idempotent for the same
	// session; wentOnline reports the identity's offline-to-online transition.
	Register(conn Connector) (wentOnline bool)
	// Unregister removes exactly that session. No-op on duplicate close;
	// wentOffline reports the last-session-removed transition.
	Unregister(userID int64, connID uuid.UUID) (wentOffline bool)
	// Deliver routes an event to its recipient's cell. False on miss or overflow.
	Deliver(ev model.Eventer) bool
	// DeliverAll pushes an event to every online identity.
	DeliverAll(ev model.Eventer)
	IsOnline(userID int64) bool
	// SessionsFor returns a point-in-time snapshot, empty when offline.
	SessionsFor(userID int64) []Connector
	// Identities snapshots every currently online identity.
	Identities() []model.Identity
	Stats() HubStats
	Shutdown()
}

// Interface guard
var _ Hubber = (*Hub)(nil)

// Hub maps identities to their live cells.
type Hub struct {
	// cells stores map[int64]*Cell, optimized for read-heavy delivery lookups.
	cells  sync.Map
	config hubConfig
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{config: defaultConfig()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) IsOnline(userID int64) bool {
	val, ok := h.cells.Load(userID)
	if !ok {
		return false
	}
	return val.(*Cell).Size() > 0
}

// Register attaches the session to its identity's cell, creating the cell
// lazily. A cell concurrently purged by Unregister refuses the attach, in
// which case the stale entry is removed and the attach retried.
func (h *Hub) Register(conn Connector) bool {
	identity := conn.GetIdentity()
	for {
		fresh := NewCell(identity, h.config.mailboxSize, h.config.sendTimeout)
		val, loaded := h.cells.LoadOrStore(identity.ID, fresh)
		if loaded {
			fresh.Stop()
		}

		cell := val.(*Cell)
		wentOnline, ok := cell.Attach(conn)
		if ok {
			return wentOnline
		}
		h.cells.CompareAndDelete(identity.ID, val)
	}
}

// Unregister detaches the session and reclaims the cell when it was the
// last one. Duplicate close signals from both transport directions resolve
// to a single offline transition.
func (h *Hub) Unregister(userID int64, connID uuid.UUID) bool {
	val, ok := h.cells.Load(userID)
	if !ok {
		return false
	}

	cell := val.(*Cell)
	removed, empty := cell.Detach(connID)
	if removed && empty {
		cell.Stop()
		h.cells.CompareAndDelete(userID, val)
		return true
	}
	return false
}

func (h *Hub) Deliver(ev model.Eventer) bool {
	if val, ok := h.cells.Load(ev.GetUserID()); ok {
		return val.(*Cell).Push(ev)
	}
	return false
}

func (h *Hub) DeliverAll(ev model.Eventer) {
	h.cells.Range(func(_, val any) bool {
		val.(*Cell).Push(ev)
		return true
	})
}

func (h *Hub) SessionsFor(userID int64) []Connector {
	val, ok := h.cells.Load(userID)
	if !ok {
		return nil
	}
	return val.(*Cell).Snapshot()
}

func (h *Hub) Identities() []model.Identity {
	var ids []model.Identity
	h.cells.Range(func(_, val any) bool {
		cell := val.(*Cell)
		if cell.Size() > 0 {
			ids = append(ids, cell.Identity())
		}
		return true
	})
	return ids
}

func (h *Hub) Stats() HubStats {
	var stats HubStats
	h.cells.Range(func(_, val any) bool {
		cell := val.(*Cell)
		if n := cell.Size(); n > 0 {
			stats.OnlineUsers++
			stats.Sessions += n
		}
		return true
	})
	return stats
}

// Shutdown stops every cell goroutine and closes all live sessions.
func (h *Hub) Shutdown() {
	h.cells.Range(func(key, val any) bool {
		cell := val.(*Cell)
		for _, conn := range cell.Snapshot() {
			conn.Close()
		}
		cell.Stop()
		h.cells.Delete(key)
		return true
	})
}
