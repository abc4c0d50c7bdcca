package registry

import "time"

type hubConfig struct {
	mailboxSize int
	sendTimeout time.Duration
}

func defaultConfig() hubConfig {
	return hubConfig{
		mailboxSize: 2048,
		sendTimeout: 500 * time.Millisecond,
	}
}

// Option is a functional configuration type for the Hub.
type Option func(*Hub)

// WithMailboxSize sets the buffer capacity of each user's mailbox, the
// backpressure threshold between dispatch and delivery.
func WithMailboxSize(size int) Option {
	return func(h *Hub) {
		h.config.mailboxSize = size
	}
}

// WithSendTimeout bounds how long a delivery waits on a saturated session
// before shedding load.
func WithSendTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.config.sendTimeout = d
	}
}
