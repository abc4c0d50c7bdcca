package wsmarshaller

import (
	"encoding/json"
	"fmt"

	"github.com/echo-chat/relay-service/internal/domain/model"
)

// WSEvent is the generic envelope for outbound websocket frames.
type WSEvent struct {
	Event   string `json:"event"` // e.g. "message_created", "connected"
	ID      string `json:"id"`
	SentAt  int64  `json:"sent_at"`
	Payload any    `json:"payload"`
}

// MarshallDeliveryEvent prepares a delivery event for websocket
// transmission. Payloads are already wire-shaped domain structs, so only
// the envelope is added here.
func MarshallDeliveryEvent(ev model.Eventer) ([]byte, error) {
	res := &WSEvent{
		Event:   eventName(ev),
		ID:      ev.GetID(),
		SentAt:  ev.GetOccurredAt(),
		Payload: ev.GetPayload(),
	}

	return json.Marshal(res)
}

func eventName(ev model.Eventer) string {
	switch ev.GetKind() {
	case model.Connected:
		return "connected"
	case model.Disconnected:
		return "disconnected"
	case model.MessageCreated:
		return "message_created"
	case model.ReactionAdded:
		return "reaction_added"
	case model.PresenceChanged:
		return "presence"
	case model.OnlineRoster:
		return "online_users"
	case model.CallSignal:
		if p, ok := ev.GetPayload().(*model.CallPayload); ok {
			return fmt.Sprintf("call:%s", p.Kind)
		}
		return "call:unknown"
	case model.ErrorNotice:
		return "error"
	default:
		return "unknown"
	}
}
