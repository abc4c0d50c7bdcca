package model

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FrameType discriminates inbound client frames.
type FrameType string

const (
	FrameConnect    FrameType = "connect"
	FrameMessage    FrameType = "message"
	FrameBroadcast  FrameType = "broadcast"
	FrameReaction   FrameType = "reaction"
	FramePresence   FrameType = "presence"
	FrameCallOffer  FrameType = "call:offer"
	FrameCallAnswer FrameType = "call:answer"
	FrameCallIce    FrameType = "call:ice"
	FrameCallEnd    FrameType = "call:end"
)

// CallKind names the signaling sub-protocol of a call frame.
type CallKind string

const (
	CallOffer  CallKind = "offer"
	CallAnswer CallKind = "answer"
	CallIce    CallKind = "ice"
	CallEnd    CallKind = "end"
)

// ConnectFrame authenticates inside the stream, for clients that did not
// present a credential at the transport handshake.
type ConnectFrame struct {
	Token string `json:"token" validate:"required"`
}

// MessageFrame is a direct message to a single recipient. The sender is
// always taken from the authenticated session, never from the frame.
type MessageFrame struct {
	ReceiverID int64  `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required"`
	MediaURL   string `json:"mediaUrl"`
	Timestamp  int64  `json:"timestamp"`
}

// BroadcastFrame is a message addressed to every online session.
type BroadcastFrame struct {
	Content   string `json:"content" validate:"required"`
	Timestamp int64  `json:"timestamp"`
}

// ReactionFrame appends an emoji reaction to an existing message.
type ReactionFrame struct {
	MessageID int64  `json:"messageId" validate:"required"`
	Emoji     string `json:"emoji" validate:"required"`
}

// PresenceFrame is a client-advertised status update (AWAY, DND, ...).
// It is re-published verbatim and does not alter registry membership.
type PresenceFrame struct {
	UserID int64  `json:"userId"`
	Status string `json:"status" validate:"required"`
}

// CallFrame is a WebRTC signaling frame. The SDP, candidate and media
// payloads are opaque pass-through blobs produced and consumed by peers.
type CallFrame struct {
	Kind      CallKind        `json:"-"`
	From      int64           `json:"from"`
	To        int64           `json:"to" validate:"required"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Media     json.RawMessage `json:"media,omitempty"`
}

// HasCandidate reports whether the frame carries a non-null ICE candidate.
// Browsers emit a null candidate as the end-of-candidates sentinel.
func (f *CallFrame) HasCandidate() bool {
	return len(f.Candidate) > 0 && string(f.Candidate) != "null"
}

var validate = validator.New()

type frameEnvelope struct {
	Type FrameType `json:"type"`
}

// DecodeFrame parses a raw inbound frame into its typed representation.
// Undecodable data and missing required fields map to ErrMalformedEvent.
func DecodeFrame(data []byte) (FrameType, any, error) {
	var env frameEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var frame any
	switch env.Type {
	case FrameConnect:
		frame = &ConnectFrame{}
	case FrameMessage:
		frame = &MessageFrame{}
	case FrameBroadcast:
		frame = &BroadcastFrame{}
	case FrameReaction:
		frame = &ReactionFrame{}
	case FramePresence:
		frame = &PresenceFrame{}
	case FrameCallOffer, FrameCallAnswer, FrameCallIce, FrameCallEnd:
		frame = &CallFrame{}
	default:
		return env.Type, nil, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, env.Type)
	}

	if err := json.Unmarshal(data, frame); err != nil {
		return env.Type, nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := validate.Struct(frame); err != nil {
		return env.Type, nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if cf, ok := frame.(*CallFrame); ok {
		cf.Kind = callKind(env.Type)
	}

	return env.Type, frame, nil
}

func callKind(t FrameType) CallKind {
	switch t {
	case FrameCallOffer:
		return CallOffer
	case FrameCallAnswer:
		return CallAnswer
	case FrameCallIce:
		return CallIce
	default:
		return CallEnd
	}
}
