package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/stretchr/testify/require"
)

func TestRouter_DirectMessageReachesBothSides(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.db.AddUser(model.Identity{ID: 1, Username: "ana"})
	f.db.AddUser(model.Identity{ID: 2, Username: "bob"})
	f.db.Befriend(1, 2)

	ana := f.connect(1, "ana")
	bob := f.connect(2, "bob")

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.MessageFrame{
		ReceiverID: 2,
		Content:    "hi",
	})
	req.NoError(err)

	anaEv := recvEvent(t, ana)
	bobEv := recvEvent(t, bob)
	req.Equal(model.MessageCreated, anaEv.GetKind())
	req.Equal(model.MessageCreated, bobEv.GetKind())

	anaPayload := anaEv.GetPayload().(*model.MessagePayload)
	bobPayload := bobEv.GetPayload().(*model.MessagePayload)

	// Both sides observe the same finalized message.
	req.Equal(anaPayload.ID, bobPayload.ID)
	req.Equal(anaPayload.Timestamp, bobPayload.Timestamp)
	req.Equal(int64(1), anaPayload.SenderID)
	req.Equal("ana", anaPayload.SenderName)
	req.Equal("hi", bobPayload.Content)
	req.NotZero(anaPayload.Timestamp)

	req.Contains(f.dispatcher.published(), "chat/1_2")
}

func TestRouter_DirectMessageBlockedNeverReachesReceiver(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.db.AddUser(model.Identity{ID: 1, Username: "ana"})
	f.db.AddUser(model.Identity{ID: 2, Username: "bob"})
	f.db.Befriend(1, 2)
	f.db.Block(2, 1)

	bob := f.connect(2, "bob")

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.MessageFrame{
		ReceiverID: 2,
		Content:    "hi",
	})
	req.ErrorIs(err, model.ErrBlocked)

	assertNoEvent(t, bob)
	req.Empty(f.dispatcher.published())
}

func TestRouter_DirectMessageToStranger(t *testing.T) {
	f := newRelayFixture(t)
	f.db.AddUser(model.Identity{ID: 1, Username: "ana"})
	f.db.AddUser(model.Identity{ID: 2, Username: "bob"})

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.MessageFrame{
		ReceiverID: 2,
		Content:    "hi",
	})
	require.ErrorIs(t, err, model.ErrNotFriends)
}

func TestRouter_DirectMessageToUnknownRecipient(t *testing.T) {
	f := newRelayFixture(t)
	f.db.AddUser(model.Identity{ID: 1, Username: "ana"})

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.MessageFrame{
		ReceiverID: 404,
		Content:    "hi",
	})
	require.ErrorIs(t, err, model.ErrUnknownRecipient)
}

func TestRouter_DirectMessageToOfflineRecipientIsNotAnError(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.db.AddUser(model.Identity{ID: 1, Username: "ana"})
	f.db.AddUser(model.Identity{ID: 2, Username: "bob"})
	f.db.Befriend(1, 2)

	ana := f.connect(1, "ana")

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.MessageFrame{
		ReceiverID: 2,
		Content:    "for later",
	})
	req.NoError(err)

	// The sender's own sessions still see the finalized message.
	ev := recvEvent(t, ana)
	req.Equal(model.MessageCreated, ev.GetKind())
	req.Equal("for later", ev.GetPayload().(*model.MessagePayload).Content)
}

func TestRouter_DirectMessageCarriesAdvisoryMuteFlag(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.db.AddUser(model.Identity{ID: 1, Username: "ana"})
	f.db.AddUser(model.Identity{ID: 2, Username: "bob"})
	f.db.Befriend(1, 2)
	f.db.Mute(2, 1)

	ana := f.connect(1, "ana")
	bob := f.connect(2, "bob")

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.MessageFrame{
		ReceiverID: 2,
		Content:    "hi",
	})
	req.NoError(err)

	// Mutes never suppress delivery; only the receiver copy is flagged.
	req.False(recvEvent(t, ana).GetPayload().(*model.MessagePayload).Muted)
	req.True(recvEvent(t, bob).GetPayload().(*model.MessagePayload).Muted)
}

func TestRouter_BroadcastReachesEveryOnlineSession(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.db.AddUser(model.Identity{ID: 1, Username: "ana"})

	ana := f.connect(1, "ana")
	bob := f.connect(2, "bob")
	cyd := f.connect(3, "cyd")

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.BroadcastFrame{
		Content: "hello everyone",
	})
	req.NoError(err)

	req.Equal("hello everyone", recvEvent(t, ana).GetPayload().(*model.MessagePayload).Content)
	req.Equal("hello everyone", recvEvent(t, bob).GetPayload().(*model.MessagePayload).Content)
	req.Equal("hello everyone", recvEvent(t, cyd).GetPayload().(*model.MessagePayload).Content)

	req.Contains(f.dispatcher.published(), model.BroadcastTopic)
}

func TestRouter_ReactionFansOutToOriginalParticipants(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.db.AddUser(model.Identity{ID: 1, Username: "ana"})
	f.db.AddUser(model.Identity{ID: 2, Username: "bob"})
	f.db.Befriend(1, 2)

	ana := f.connect(1, "ana")
	bob := f.connect(2, "bob")
	cyd := f.connect(3, "cyd")

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.MessageFrame{
		ReceiverID: 2,
		Content:    "hi",
	})
	req.NoError(err)
	messageID := recvEvent(t, ana).GetPayload().(*model.MessagePayload).ID
	recvEvent(t, bob)

	err = f.router.Route(context.Background(), model.Identity{ID: 2, Username: "bob"}, &model.ReactionFrame{
		MessageID: messageID,
		Emoji:     "👍",
	})
	req.NoError(err)

	anaEv := recvEvent(t, ana)
	bobEv := recvEvent(t, bob)
	req.Equal(model.ReactionAdded, anaEv.GetKind())
	req.Equal(model.ReactionAdded, bobEv.GetKind())

	payload := anaEv.GetPayload().(*model.ReactionPayload)
	req.Equal(messageID, payload.MessageID)
	req.Equal("👍", payload.Emoji)
	req.Equal("bob", payload.FromName)

	// A bystander of the conversation sees nothing.
	assertNoEvent(t, cyd)

	req.Len(f.db.Reactions(messageID), 1)
}

func TestRouter_ReactionToUnknownMessage(t *testing.T) {
	f := newRelayFixture(t)

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.ReactionFrame{
		MessageID: 999,
		Emoji:     "👍",
	})
	require.ErrorIs(t, err, model.ErrUnknownMessage)
}

func TestRouter_PresenceRelayedVerbatim(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	ana := f.connect(1, "ana")
	bob := f.connect(2, "bob")

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.PresenceFrame{
		Status: "AWAY",
	})
	req.NoError(err)

	anaPayload := recvEvent(t, ana).GetPayload().(*model.PresencePayload)
	bobPayload := recvEvent(t, bob).GetPayload().(*model.PresencePayload)
	req.Equal("AWAY", anaPayload.Status)
	req.Equal(int64(1), anaPayload.UserID)
	req.Equal(anaPayload, bobPayload)
}

func TestRouter_PresenceExplicitSubjectRelayed(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	ana := f.connect(1, "ana")

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.PresenceFrame{
		UserID: 9,
		Status: "BUSY",
	})
	req.NoError(err)

	payload := recvEvent(t, ana).GetPayload().(*model.PresencePayload)
	req.Equal(int64(9), payload.UserID)
	req.Equal("BUSY", payload.Status)
}

func TestRouter_CallOfferRelayedToCallee(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	bob := f.connect(2, "bob")

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.CallFrame{
		Kind: model.CallOffer,
		From: 1,
		To:   2,
		SDP:  []byte(`{"type":"offer"}`),
	})
	req.NoError(err)

	ev := recvEvent(t, bob)
	req.Equal(model.CallSignal, ev.GetKind())

	payload := ev.GetPayload().(*model.CallPayload)
	req.Equal(model.CallOffer, payload.Kind)
	req.Equal(int64(1), payload.From)
	req.JSONEq(`{"type":"offer"}`, string(payload.SDP))
}

func TestRouter_NullIceCandidateSwallowed(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	bob := f.connect(2, "bob")

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.CallFrame{
		Kind:      model.CallIce,
		To:        2,
		Candidate: []byte(`null`),
	})
	req.NoError(err)
	assertNoEvent(t, bob)

	err = f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.CallFrame{
		Kind:      model.CallIce,
		To:        2,
		Candidate: []byte(`{"sdpMid":"0"}`),
	})
	req.NoError(err)

	payload := recvEvent(t, bob).GetPayload().(*model.CallPayload)
	req.Equal(model.CallIce, payload.Kind)
	req.JSONEq(`{"sdpMid":"0"}`, string(payload.Candidate))
}

func TestRouter_CallToOfflineCalleeIsNoop(t *testing.T) {
	f := newRelayFixture(t)

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.CallFrame{
		Kind: model.CallEnd,
		To:   77,
	})
	require.NoError(t, err)
}

func TestRouter_UnroutableFrame(t *testing.T) {
	f := newRelayFixture(t)

	err := f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, struct{}{})
	require.ErrorIs(t, err, model.ErrMalformedEvent)
}

func TestRouter_PerSenderOrderPreserved(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.db.AddUser(model.Identity{ID: 1, Username: "ana"})
	f.db.AddUser(model.Identity{ID: 2, Username: "bob"})
	f.db.Befriend(1, 2)

	bob := f.connect(2, "bob")

	contents := []string{"one", "two", "three", "four", "five"}
	for _, content := range contents {
		req.NoError(f.router.Route(context.Background(), model.Identity{ID: 1, Username: "ana"}, &model.MessageFrame{
			ReceiverID: 2,
			Content:    content,
		}))
	}

	events := drainEvents(bob, 500*time.Millisecond)
	req.Len(events, len(contents))
	for i, ev := range events {
		req.Equal(contents[i], ev.GetPayload().(*model.MessagePayload).Content)
	}
}
