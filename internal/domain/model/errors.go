package model

import "errors"

// Failure taxonomy of the relay core. Nothing here is fatal to the
// process; every failure is scoped to the offending connection or event.
var (
	// ErrInvalidCredential is handshake-time and fatal to the connection.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrUnauthenticated marks a frame that arrived on a stream with no
	// resolved identity. The frame is dropped, the connection stays open.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnknownRecipient means the receiver id does not resolve to any
	// known identity. Surfaced to the sender as a local failure.
	ErrUnknownRecipient = errors.New("unknown recipient")

	// ErrUnknownMessage means a reaction targeted a message that does not exist.
	ErrUnknownMessage = errors.New("unknown message")

	// ErrBlocked and ErrNotFriends are authorization denials, surfaced to
	// the sender only and never to the would-be recipient.
	ErrBlocked    = errors.New("blocked")
	ErrNotFriends = errors.New("not friends")

	// ErrMalformedEvent marks an undecodable frame or one missing required fields.
	ErrMalformedEvent = errors.New("malformed event")
)

// ErrorCode maps a routing failure to the wire-level code reported to the
// sender. Unrecognized errors collapse to DELIVERY_FAILED so collaborator
// internals never leak to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredential):
		return "INVALID_CREDENTIAL"
	case errors.Is(err, ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, ErrUnknownRecipient):
		return "UNKNOWN_RECIPIENT"
	case errors.Is(err, ErrUnknownMessage):
		return "UNKNOWN_MESSAGE"
	case errors.Is(err, ErrBlocked):
		return "BLOCKED"
	case errors.Is(err, ErrNotFriends):
		return "NOT_FRIENDS"
	case errors.Is(err, ErrMalformedEvent):
		return "MALFORMED_EVENT"
	default:
		return "DELIVERY_FAILED"
	}
}
