package model

import "fmt"

// PresenceTopic receives every presence transition and status update.
const PresenceTopic = "presence"

// BroadcastTopic receives messages addressed to everyone.
const BroadcastTopic = "broadcast"

// ConversationTopic returns the canonical destination key for a pair of
// identities. The key is symmetric: both participants resolve to the same
// topic regardless of who is the sender.
func ConversationTopic(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("chat/%d_%d", a, b)
}

// NotificationsTopic is the per-identity key for targeted delivery,
// used for call-signaling frames.
func NotificationsTopic(userID int64) string {
	return fmt.Sprintf("notifications/%d", userID)
}
