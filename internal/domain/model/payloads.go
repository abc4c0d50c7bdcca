package model

import "encoding/json"

// MessageRecord is the durable form of a chat message, exchanged with the
// message store collaborator. ReceiverID is nil for broadcast messages.
type MessageRecord struct {
	ID         int64
	SenderID   int64
	ReceiverID *int64
	Content    string
	MediaURL   string
	Timestamp  int64
}

// ReactionRecord is the durable form of an emoji reaction.
type ReactionRecord struct {
	MessageID int64
	FromID    int64
	Emoji     string
	Timestamp int64
}

// MessagePayload is the finalized message event carried to both
// conversation sides. Muted is advisory for the receiving side's display
// and never affects delivery.
type MessagePayload struct {
	ID         int64  `json:"id"`
	SenderID   int64  `json:"senderId"`
	SenderName string `json:"senderName"`
	ReceiverID *int64 `json:"receiverId,omitempty"`
	Content    string `json:"content"`
	MediaURL   string `json:"mediaUrl,omitempty"`
	Timestamp  int64  `json:"timestamp"`
	Muted      bool   `json:"muted,omitempty"`
}

// ReactionPayload carries an appended reaction back to the original
// message's participants.
type ReactionPayload struct {
	MessageID int64  `json:"messageId"`
	FromID    int64  `json:"fromId"`
	FromName  string `json:"fromName"`
	Emoji     string `json:"emoji"`
	Timestamp int64  `json:"timestamp"`
}

// PresencePayload advertises a user's status to every online session.
type PresencePayload struct {
	UserID int64  `json:"userId"`
	Status string `json:"status"`
}

// Presence statuses published on registry transitions. Client-submitted
// statuses (AWAY, DND, ...) pass through verbatim.
const (
	StatusOnline  = "ONLINE"
	StatusOffline = "OFFLINE"
)

// RosterPayload is the full online-user snapshot broadcast on every
// registry transition.
type RosterPayload struct {
	Users []string `json:"users"`
}

// CallPayload wraps a relayed signaling frame. All blobs stay opaque;
// From is relayed as supplied by the client.
type CallPayload struct {
	Kind      CallKind        `json:"kind"`
	From      int64           `json:"from,omitempty"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Media     json.RawMessage `json:"media,omitempty"`
}

// ConnectedPayload is the handshake event sent once per new session.
type ConnectedPayload struct {
	Ok            bool   `json:"ok"`
	ConnectionID  string `json:"connection_id"`
	ServerVersion string `json:"server_version"`
}

// DisconnectedPayload is the final event before server-side termination.
type DisconnectedPayload struct {
	Reason string `json:"reason"`
}

// ErrorPayload reports a routing failure to the offending sender only.
type ErrorPayload struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}
