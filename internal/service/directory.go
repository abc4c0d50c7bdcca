package service

import (
	"context"
	"fmt"

	"github.com/echo-chat/relay-service/internal/domain/model"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Directory resolves recipient ids to identities.
type Directory interface {
	Resolve(ctx context.Context, userID int64) (model.Identity, error)
}

// Interface guard
var _ Directory = (*UserDirectory)(nil)

// UserDirectory is a cache-aside front for the user-lookup collaborator.
// Only profile data (id, username) is cached; authorization facts never
// pass through here.
type UserDirectory struct {
	lookup UserLookup
	cache  *lru.Cache[int64, model.Identity]
}

func NewUserDirectory(lookup UserLookup) *UserDirectory {
	cache, _ := lru.New[int64, model.Identity](10000)

	return &UserDirectory{
		lookup: lookup,
		cache:  cache,
	}
}

func (d *UserDirectory) Resolve(ctx context.Context, userID int64) (model.Identity, error) {
	if cached, ok := d.cache.Get(userID); ok {
		return cached, nil
	}

	identity, err := d.lookup.FindByID(ctx, userID)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: id %d", model.ErrUnknownRecipient, userID)
	}

	d.cache.Add(userID, identity)
	return identity, nil
}
