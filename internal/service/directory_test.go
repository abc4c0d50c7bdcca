package service_test

import (
	"context"
	"testing"

	"github.com/echo-chat/relay-service/internal/adapter/memory"
	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/echo-chat/relay-service/internal/service"
	"github.com/stretchr/testify/require"
)

func TestUserDirectory_ResolvesKnownUser(t *testing.T) {
	req := require.New(t)
	db := memory.NewDB()
	db.AddUser(model.Identity{ID: 1, Username: "ana"})
	dir := service.NewUserDirectory(memory.NewUsers(db))

	identity, err := dir.Resolve(context.Background(), 1)
	req.NoError(err)
	req.Equal("ana", identity.Username)
}

func TestUserDirectory_UnknownRecipient(t *testing.T) {
	dir := service.NewUserDirectory(memory.NewUsers(memory.NewDB()))

	_, err := dir.Resolve(context.Background(), 404)
	require.ErrorIs(t, err, model.ErrUnknownRecipient)
}

func TestUserDirectory_CachesProfileData(t *testing.T) {
	req := require.New(t)
	db := memory.NewDB()
	db.AddUser(model.Identity{ID: 1, Username: "ana"})
	lookup := &countingLookup{next: memory.NewUsers(db)}
	dir := service.NewUserDirectory(lookup)

	for i := 0; i < 3; i++ {
		_, err := dir.Resolve(context.Background(), 1)
		req.NoError(err)
	}
	req.Equal(1, lookup.calls)
}

type countingLookup struct {
	next  service.UserLookup
	calls int
}

func (l *countingLookup) FindByID(ctx context.Context, id int64) (model.Identity, error) {
	l.calls++
	return l.next.FindByID(ctx, id)
}
