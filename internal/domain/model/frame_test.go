package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeFrame_Message(t *testing.T) {
	req := require.New(t)

	ft, frame, err := DecodeFrame([]byte(`{"type":"message","receiverId":2,"content":"hi"}`))
	req.NoError(err)
	req.Equal(FrameMessage, ft)

	mf, ok := frame.(*MessageFrame)
	req.True(ok)
	req.Equal(int64(2), mf.ReceiverID)
	req.Equal("hi", mf.Content)
}

func TestDecodeFrame_MessageMissingReceiver(t *testing.T) {
	_, _, err := DecodeFrame([]byte(`{"type":"message","content":"hi"}`))
	require.ErrorIs(t, err, ErrMalformedEvent)
}

func TestDecodeFrame_UnknownType(t *testing.T) {
	_, _, err := DecodeFrame([]byte(`{"type":"bogus"}`))
	require.ErrorIs(t, err, ErrMalformedEvent)
}

func TestDecodeFrame_Undecodable(t *testing.T) {
	_, _, err := DecodeFrame([]byte(`{not json`))
	require.ErrorIs(t, err, ErrMalformedEvent)
}

func TestDecodeFrame_CallIce(t *testing.T) {
	req := require.New(t)

	_, frame, err := DecodeFrame([]byte(`{"type":"call:ice","to":3,"candidate":{"sdpMid":"0"}}`))
	req.NoError(err)

	cf, ok := frame.(*CallFrame)
	req.True(ok)
	req.Equal(CallIce, cf.Kind)
	req.True(cf.HasCandidate())
}

func TestCallFrame_NullCandidateIsSentinel(t *testing.T) {
	req := require.New(t)

	_, frame, err := DecodeFrame([]byte(`{"type":"call:ice","to":3,"candidate":null}`))
	req.NoError(err)
	req.False(frame.(*CallFrame).HasCandidate())

	_, frame, err = DecodeFrame([]byte(`{"type":"call:ice","to":3}`))
	req.NoError(err)
	req.False(frame.(*CallFrame).HasCandidate())
}

func TestDecodeFrame_Presence(t *testing.T) {
	req := require.New(t)

	_, frame, err := DecodeFrame([]byte(`{"type":"presence","userId":5,"status":"AWAY"}`))
	req.NoError(err)

	pf, ok := frame.(*PresenceFrame)
	req.True(ok)
	req.Equal(int64(5), pf.UserID)
	req.Equal("AWAY", pf.Status)
}

func TestDecodeFrame_Connect(t *testing.T) {
	req := require.New(t)

	_, frame, err := DecodeFrame([]byte(`{"type":"connect","token":"abc"}`))
	req.NoError(err)
	req.Equal("abc", frame.(*ConnectFrame).Token)

	_, _, err = DecodeFrame([]byte(`{"type":"connect"}`))
	req.ErrorIs(err, ErrMalformedEvent)
}
