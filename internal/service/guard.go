package service

import (
	"context"
	"fmt"

	"github.com/echo-chat/relay-service/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

// Guard decides whether a direct message may be delivered for a
// (sender, receiver) pair. Facts are read fresh on every call because
// block and friendship state can change mid-session.
type Guard interface {
	CanSend(ctx context.Context, senderID, receiverID int64) error
}

// Interface guard
var _ Guard = (*SocialGuard)(nil)

// SocialGuard enforces the social-graph policy: a block in either
// direction denies, then friendship is required.
type SocialGuard struct {
	graph SocialGraph
}

func NewSocialGuard(graph SocialGraph) *SocialGuard {
	return &SocialGuard{graph: graph}
}

// CanSend returns nil when delivery is allowed, ErrBlocked or
// ErrNotFriends otherwise. The two directional block lookups run in
// parallel; the block verdict always takes precedence over friendship.
func (g *SocialGuard) CanSend(ctx context.Context, senderID, receiverID int64) error {
	var senderBlocked, receiverBlocked bool

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		senderBlocked, err = g.graph.IsBlocked(egCtx, senderID, receiverID)
		return err
	})
	eg.Go(func() error {
		var err error
		receiverBlocked, err = g.graph.IsBlocked(egCtx, receiverID, senderID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("authorization guard: block lookup: %w", err)
	}

	if senderBlocked || receiverBlocked {
		return model.ErrBlocked
	}

	friends, err := g.graph.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return fmt.Errorf("authorization guard: friendship lookup: %w", err)
	}
	if !friends {
		return model.ErrNotFriends
	}

	return nil
}
