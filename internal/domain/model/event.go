package model

import (
	"time"

	"github.com/google/uuid"
)

type EventKind int16

const (
	Connected EventKind = iota + 1 // [SYSTEM]
	Disconnected
	MessageCreated // [BUSINESS]
	ReactionAdded
	PresenceChanged
	OnlineRoster
	CallSignal
	ErrorNotice
)

var eventKindNames = map[EventKind]string{
	Connected:       "Connected",
	Disconnected:    "Disconnected",
	MessageCreated:  "MessageCreated",
	ReactionAdded:   "ReactionAdded",
	PresenceChanged: "PresenceChanged",
	OnlineRoster:    "OnlineRoster",
	CallSignal:      "CallSignal",
	ErrorNotice:     "ErrorNotice",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

type EventPriority int32

const (
	PriorityLow    EventPriority = 10
	PriorityNormal EventPriority = 20
	PriorityHigh   EventPriority = 30
)

// Eventer defines the contract for all data packets flowing through the Hub.
type Eventer interface {
	GetID() string
	GetKind() EventKind
	GetUserID() int64 // physical recipient of this event instance
	GetPriority() EventPriority
	GetOccurredAt() int64
	GetPayload() any
}

// Exportable defines an event that is additionally published to the
// out-of-band bus. An empty routing key skips publishing.
type Exportable interface {
	GetRoutingKey() string
}

// Interface guards
var (
	_ Eventer    = (*Event)(nil)
	_ Exportable = (*Event)(nil)
)

// Event is the generic envelope for everything the relay delivers.
//
// It distinguishes between the logical participants carried in the payload
// (the "who") and UserID, the physical recipient of this event instance
// (the "where"). A message delivered to both conversation sides is two
// Event values sharing one payload.
type Event struct {
	id         string
	kind       EventKind
	userID     int64
	priority   EventPriority
	occurredAt int64
	payload    any
	routingKey string
}

// NewEvent is the universal factory for delivery events.
func NewEvent(userID int64, kind EventKind, priority EventPriority, payload any) *Event {
	return &Event{
		id:         uuid.NewString(),
		kind:       kind,
		userID:     userID,
		priority:   priority,
		occurredAt: time.Now().UnixMilli(),
		payload:    payload,
	}
}

// WithRoutingKey marks the event for out-of-band publishing under key.
func (e *Event) WithRoutingKey(key string) *Event {
	e.routingKey = key
	return e
}

func (e *Event) GetID() string               { return e.id }
func (e *Event) GetKind() EventKind          { return e.kind }
func (e *Event) GetUserID() int64            { return e.userID }
func (e *Event) GetPriority() EventPriority  { return e.priority }
func (e *Event) GetOccurredAt() int64        { return e.occurredAt }
func (e *Event) GetPayload() any             { return e.payload }
func (e *Event) GetRoutingKey() string       { return e.routingKey }
