// Package memory holds in-memory reference implementations of the
// relay's collaborator ports: the social graph, the user lookup and the
// message store. They back standalone mode and the test suite; the
// production deployment swaps them for the platform's data services.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/echo-chat/relay-service/internal/domain/model"
)

// DB is the shared state behind the collaborator views. All access is
// serialized by one RWMutex; none of these operations sit on the relay's
// hot delivery path.
type DB struct {
	mu        sync.RWMutex
	users     map[int64]model.Identity
	friends   map[[2]int64]struct{} // normalized (min, max)
	blocks    map[[2]int64]struct{} // directional (blocker, blocked)
	mutes     map[[2]int64]struct{} // directional (owner, target)
	messages  map[int64]*model.MessageRecord
	reactions map[int64][]*model.ReactionRecord
	nextID    int64
}

func NewDB() *DB {
	return &DB{
		users:     make(map[int64]model.Identity),
		friends:   make(map[[2]int64]struct{}),
		blocks:    make(map[[2]int64]struct{}),
		mutes:     make(map[[2]int64]struct{}),
		messages:  make(map[int64]*model.MessageRecord),
		reactions: make(map[int64][]*model.ReactionRecord),
	}
}

func pairKey(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}

// --- seeding ---

func (db *DB) AddUser(identity model.Identity) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[identity.ID] = identity
}

func (db *DB) Befriend(a, b int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.friends[pairKey(a, b)] = struct{}{}
}

func (db *DB) Unfriend(a, b int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.friends, pairKey(a, b))
}

func (db *DB) Block(blocker, blocked int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.blocks[[2]int64{blocker, blocked}] = struct{}{}
}

func (db *DB) Unblock(blocker, blocked int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.blocks, [2]int64{blocker, blocked})
}

func (db *DB) Mute(owner, target int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.mutes[[2]int64{owner, target}] = struct{}{}
}

// --- collaborator views ---

// Users implements the user-lookup port.
type Users struct{ db *DB }

func NewUsers(db *DB) *Users { return &Users{db: db} }

func (u *Users) FindByID(_ context.Context, id int64) (model.Identity, error) {
	u.db.mu.RLock()
	defer u.db.mu.RUnlock()

	identity, ok := u.db.users[id]
	if !ok {
		return model.Identity{}, fmt.Errorf("user %d not found", id)
	}
	return identity, nil
}

// Graph implements the social-graph port.
type Graph struct{ db *DB }

func NewGraph(db *DB) *Graph { return &Graph{db: db} }

func (g *Graph) IsBlocked(_ context.Context, blocker, blocked int64) (bool, error) {
	g.db.mu.RLock()
	defer g.db.mu.RUnlock()

	_, ok := g.db.blocks[[2]int64{blocker, blocked}]
	return ok, nil
}

func (g *Graph) AreFriends(_ context.Context, a, b int64) (bool, error) {
	g.db.mu.RLock()
	defer g.db.mu.RUnlock()

	_, ok := g.db.friends[pairKey(a, b)]
	return ok, nil
}

func (g *Graph) IsMuted(_ context.Context, owner, target int64) (bool, error) {
	g.db.mu.RLock()
	defer g.db.mu.RUnlock()

	_, ok := g.db.mutes[[2]int64{owner, target}]
	return ok, nil
}

// Messages implements the message-store port.
type Messages struct{ db *DB }

func NewMessages(db *DB) *Messages { return &Messages{db: db} }

func (m *Messages) Persist(_ context.Context, rec *model.MessageRecord) (*model.MessageRecord, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	m.db.nextID++
	saved := *rec
	saved.ID = m.db.nextID
	m.db.messages[saved.ID] = &saved

	out := saved
	return &out, nil
}

func (m *Messages) FindByID(_ context.Context, id int64) (*model.MessageRecord, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	rec, ok := m.db.messages[id]
	if !ok {
		return nil, nil
	}
	out := *rec
	return &out, nil
}

func (m *Messages) AppendReaction(_ context.Context, rec *model.ReactionRecord) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	if _, ok := m.db.messages[rec.MessageID]; !ok {
		return fmt.Errorf("message %d not found", rec.MessageID)
	}
	m.db.reactions[rec.MessageID] = append(m.db.reactions[rec.MessageID], rec)
	return nil
}

// Reactions returns a snapshot of the reactions appended to a message.
func (db *DB) Reactions(messageID int64) []*model.ReactionRecord {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]*model.ReactionRecord, len(db.reactions[messageID]))
	copy(out, db.reactions[messageID])
	return out
}
