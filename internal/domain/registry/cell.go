package registry

import (
	"sync"
	"time"

	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/google/uuid"
)

// Cell is the isolated delivery unit for a single identity. It owns every
// concurrent session of that user and a mailbox goroutine that decouples
// the dispatching side from slow consumers.
type Cell struct {
	identity model.Identity

	// mailbox decouples the Hub from individual delivery. Events queued
	// here are fanned out to all sessions in FIFO order, which preserves
	// the per-sender ordering guarantee end to end.
	mailbox chan model.Eventer

	// sessions multiplexes one event to every device of the user.
	sessions map[uuid.UUID]Connector

	mu sync.RWMutex

	// stopped marks a cell that detached its last session and is being
	// purged. Attach refuses stopped cells so a racing register cannot
	// park a live session on a dead mailbox.
	stopped bool

	doneCh      chan struct{}
	stopOnce    sync.Once
	sendTimeout time.Duration
}

func NewCell(identity model.Identity, mailboxSize int, sendTimeout time.Duration) *Cell {
	c := &Cell{
		identity:    identity,
		mailbox:     make(chan model.Eventer, mailboxSize),
		sessions:    make(map[uuid.UUID]Connector),
		doneCh:      make(chan struct{}),
		sendTimeout: sendTimeout,
	}
	go c.loop()
	return c
}

func (c *Cell) Identity() model.Identity { return c.identity }

// Push queues an event for delivery to all sessions. Returns false on a
// full mailbox or a stopped cell; delivery is best-effort by contract.
func (c *Cell) Push(ev model.Eventer) bool {
	select {
	case c.mailbox <- ev:
		return true
	case <-c.doneCh:
		return false
	default:
		return false
	}
}

// Attach registers a session. wentOnline reports the offline-to-online
// transition (first session), ok is false when the cell is already stopped
// and the caller must retry against a fresh cell.
func (c *Cell) Attach(conn Connector) (wentOnline, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return false, false
	}
	wasEmpty := len(c.sessions) == 0
	c.sessions[conn.GetID()] = conn
	return wasEmpty, true
}

// Detach removes exactly the given session. removed is false when the
// session was already gone (duplicate close), empty reports last-out. A
// cell that reports empty is marked stopped under the same lock, so the
// offline transition fires exactly once.
func (c *Cell) Detach(connID uuid.UUID) (removed, empty bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[connID]; !ok {
		return false, false
	}
	delete(c.sessions, connID)
	if len(c.sessions) == 0 {
		c.stopped = true
		return true, true
	}
	return true, false
}

// Snapshot returns a copy of the current sessions. Later registry changes
// never mutate the returned slice.
func (c *Cell) Snapshot() []Connector {
	c.mu.RLock()
	defer c.mu.RUnlock()

	conns := make([]Connector, 0, len(c.sessions))
	for _, conn := range c.sessions {
		conns = append(conns, conn)
	}
	return conns
}

func (c *Cell) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

func (c *Cell) loop() {
	for {
		select {
		case <-c.doneCh:
			return
		case ev := <-c.mailbox:
			c.deliver(ev)
		}
	}
}

func (c *Cell) deliver(ev model.Eventer) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, conn := range c.sessions {
		conn.Send(ev, c.sendTimeout)
	}
}

func (c *Cell) Stop() {
	c.stopOnce.Do(func() {
		close(c.doneCh)
	})
}
