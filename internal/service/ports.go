package service

import (
	"context"

	"github.com/echo-chat/relay-service/internal/domain/model"
)

// Collaborator ports consumed by the relay core. The core never caches
// authorization or persistence facts across calls; implementations own
// durability, hashing and any storage concerns.

// CredentialValidator resolves a bearer credential to an identity.
type CredentialValidator interface {
	Resolve(ctx context.Context, token string) (model.Identity, error)
}

// SocialGraph answers block, friendship and mute facts. Blocks and mutes
// are directional, friendship is symmetric.
type SocialGraph interface {
	IsBlocked(ctx context.Context, blocker, blocked int64) (bool, error)
	AreFriends(ctx context.Context, a, b int64) (bool, error)
	IsMuted(ctx context.Context, owner, target int64) (bool, error)
}

// MessageStore hands finalized records to durable storage and answers
// existence queries for reactions.
type MessageStore interface {
	Persist(ctx context.Context, rec *model.MessageRecord) (*model.MessageRecord, error)
	FindByID(ctx context.Context, id int64) (*model.MessageRecord, error)
	AppendReaction(ctx context.Context, rec *model.ReactionRecord) error
}

// UserLookup resolves a user id to its identity.
type UserLookup interface {
	FindByID(ctx context.Context, id int64) (model.Identity, error)
}
