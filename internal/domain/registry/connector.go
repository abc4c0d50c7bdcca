package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/google/uuid"
)

// Interface guard
var _ Connector = (*connect)(nil)

// Connector is the send handle of one live session, the interface the Hub
// and transport handlers work against.
type Connector interface {
	GetID() uuid.UUID
	GetIdentity() model.Identity
	Send(ev model.Eventer, timeout time.Duration) bool // thread-safe send with backpressure handling
	Recv() <-chan model.Eventer
	Close() // terminate the session and release resources
}

// connect is the concrete implementation, unexported to force interface usage.
type connect struct {
	id        uuid.UUID
	identity  model.Identity
	createdAt time.Time

	ctx      context.Context
	cancelFn context.CancelFunc

	sendCh    chan model.Eventer
	closeOnce sync.Once

	droppedCount uint64 // atomic
}

var connectPool = sync.Pool{
	New: func() any {
		return &connect{}
	},
}

// NewConnector acquires a pooled connector bound to identity. The session
// is never reused after Close returns it to the pool.
func NewConnector(ctx context.Context, identity model.Identity, bufferSize int) Connector {
	c := connectPool.Get().(*connect)
	c.reset(ctx, identity, bufferSize)
	return c
}

// reset re-initializes the connector's state with a struct literal, wiping
// stale data from the pooled object and re-arming the sync.Once guard.
func (c *connect) reset(ctx context.Context, identity model.Identity, bufferSize int) {
	childCtx, cancel := context.WithCancel(ctx)

	*c = connect{
		id:        uuid.New(),
		identity:  identity,
		createdAt: time.Now(),
		ctx:       childCtx,
		cancelFn:  cancel,
		sendCh:    make(chan model.Eventer, bufferSize),
	}
}

func (c *connect) GetID() uuid.UUID            { return c.id }
func (c *connect) GetIdentity() model.Identity { return c.identity }

// Send attempts to push an event into the session channel, waiting up to
// timeout for space so a single stalled session cannot hold the user cell
// hostage. If the buffer stays saturated, lower-priority events are shed.
func (c *connect) Send(ev model.Eventer, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case <-c.ctx.Done():
		return false
	case c.sendCh <- ev:
		return true
	case <-ctx.Done():
		return c.handleBackpressure(ev)
	}
}

// handleBackpressure manages full buffers by dropping low-priority events.
func (c *connect) handleBackpressure(ev model.Eventer) bool {
	if ev.GetPriority() <= model.PriorityLow {
		atomic.AddUint64(&c.droppedCount, 1)
		return false
	}

	// Evict one queued event if it ranks below the incoming one.
	select {
	case oldEv := <-c.sendCh:
		if oldEv.GetPriority() < ev.GetPriority() {
			select {
			case c.sendCh <- ev:
				return true
			default:
			}
		} else {
			// Put the displaced event back, best effort.
			select {
			case c.sendCh <- oldEv:
			default:
			}
		}
	default:
	}

	atomic.AddUint64(&c.droppedCount, 1)
	return false
}

func (c *connect) Recv() <-chan model.Eventer { return c.sendCh }

// Close terminates the session exactly once, even when invoked concurrently
// by the Hub (shutdown), the cell (eviction) and the transport handler
// (deferred cleanup), then recycles the object.
func (c *connect) Close() {
	c.closeOnce.Do(func() {
		c.cancelFn()

		// Closing the channel signals the transport pump (via !ok) to send
		// a final disconnect event and exit its loop.
		if c.sendCh != nil {
			close(c.sendCh)
		}

		c.sendCh = nil
		connectPool.Put(c)
	})
}
