package relay

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"e2e_relay/internal/model"
	"e2e_relay/internal/service/registry"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeChannel struct {
	mu     sync.Mutex
	closed bool
	frames []any
}

func (c *fakeChannel) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("channel closed")
	}
	c.frames = append(c.frames, v)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) Frames() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.frames...)
}

type fakeMessages struct {
	insertErr error
	records   []*model.Message
}

func (f *fakeMessages) Insert(ctx context.Context, senderID, receiverID, content string) (*model.Message, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	m := &model.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	f.records = append(f.records, m)
	return m, nil
}

type fakeBlocks struct {
	err   error
	pairs map[string]bool
}

func (f *fakeBlocks) IsBlocked(ctx context.Context, a, b string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.pairs[model.PairKey(a, b)], nil
}

type upsertCall struct {
	pairKey      string
	lastMessage  string
	lastSenderID string
}

type fakeConversations struct {
	err   error
	calls []upsertCall
}

func (f *fakeConversations) Upsert(ctx context.Context, a, b, lastMessage, lastSenderID string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, upsertCall{
		pairKey:      model.PairKey(a, b),
		lastMessage:  lastMessage,
		lastSenderID: lastSenderID,
	})
	return nil
}

type fakeSessions struct {
	channels map[string]registry.Channel
}

func (f *fakeSessions) Lookup(userID string) (registry.Channel, bool) {
	ch, ok := f.channels[userID]
	return ch, ok
}

type env struct {
	messages      *fakeMessages
	blocks        *fakeBlocks
	conversations *fakeConversations
	sessions      *fakeSessions
	dispatcher    *Dispatcher
}

func newEnv() *env {
	e := &env{
		messages:      &fakeMessages{},
		blocks:        &fakeBlocks{pairs: map[string]bool{}},
		conversations: &fakeConversations{},
		sessions:      &fakeSessions{channels: map[string]registry.Channel{}},
	}
	e.dispatcher = NewDispatcher(e.messages, e.blocks, e.conversations, e.sessions, 256)
	return e
}

func (e *env) connect(userID string) *fakeChannel {
	ch := &fakeChannel{}
	e.sessions.channels[userID] = ch
	return ch
}

func frameTypes(frames []any) []string {
	var types []string
	for _, f := range frames {
		switch v := f.(type) {
		case *model.MessageFrame:
			types = append(types, v.Type)
		case *model.ErrorFrame:
			types = append(types, v.Type)
		}
	}
	return types
}

func TestSendDeliversToBothParties(t *testing.T) {
	e := newEnv()
	alice := e.connect("alice")
	bob := e.connect("bob")

	msg, err := e.dispatcher.Send(context.Background(), "alice", "bob", "ciphertext-1")
	require.NoError(t, err)
	require.NotNil(t, msg)

	require.Len(t, e.messages.records, 1)
	assert.Equal(t, "ciphertext-1", e.messages.records[0].Content)

	aliceFrames := alice.Frames()
	require.Len(t, aliceFrames, 1)
	ack := aliceFrames[0].(*model.MessageFrame)
	assert.Equal(t, model.FrameMessageSent, ack.Type)
	assert.Equal(t, msg.ID, ack.Message.ID)

	bobFrames := bob.Frames()
	require.Len(t, bobFrames, 1)
	push := bobFrames[0].(*model.MessageFrame)
	assert.Equal(t, model.FrameNewMessage, push.Type)
	assert.Equal(t, "ciphertext-1", push.Message.Content)
	assert.Equal(t, "alice", push.Message.SenderID)
}

func TestSendReceiverOffline(t *testing.T) {
	e := newEnv()
	alice := e.connect("alice")

	_, err := e.dispatcher.Send(context.Background(), "alice", "bob", "abc")
	require.NoError(t, err)

	// The record is durable and the sender is acknowledged.
	require.Len(t, e.messages.records, 1)
	assert.Equal(t, "abc", e.messages.records[0].Content)
	require.Len(t, alice.Frames(), 1)
	assert.Equal(t, model.FrameMessageSent, alice.Frames()[0].(*model.MessageFrame).Type)

	// A late connect gets nothing: live delivery is not retried or queued.
	bob := e.connect("bob")
	assert.Empty(t, bob.Frames())
}

func TestSendBlockedEitherDirection(t *testing.T) {
	e := newEnv()
	alice := e.connect("alice")
	bob := e.connect("bob")

	// alice blocked bob; both directions must refuse.
	e.blocks.pairs[model.PairKey("alice", "bob")] = true

	_, err := e.dispatcher.Send(context.Background(), "bob", "alice", "x")
	require.ErrorIs(t, err, ErrBlocked)

	_, err = e.dispatcher.Send(context.Background(), "alice", "bob", "x")
	require.ErrorIs(t, err, ErrBlocked)

	assert.Empty(t, e.messages.records)
	assert.Empty(t, e.conversations.calls)
	assert.Empty(t, alice.Frames())
	assert.Empty(t, bob.Frames())
}

func TestSendRejectsInvalidRequests(t *testing.T) {
	e := newEnv()

	_, err := e.dispatcher.Send(context.Background(), "alice", "alice", "x")
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.dispatcher.Send(context.Background(), "alice", "bob", "")
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.dispatcher.Send(context.Background(), "alice", "", "x")
	require.ErrorIs(t, err, ErrInvalidRequest)

	assert.Empty(t, e.messages.records)
}

func TestNoAckWithoutDurableWrite(t *testing.T) {
	e := newEnv()
	alice := e.connect("alice")
	bob := e.connect("bob")

	e.messages.insertErr = errors.New("store unavailable")

	_, err := e.dispatcher.Send(context.Background(), "alice", "bob", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRequest)
	assert.NotErrorIs(t, err, ErrBlocked)

	// No confirmation, no push, no summary: nothing happened.
	assert.Empty(t, alice.Frames())
	assert.Empty(t, bob.Frames())
	assert.Empty(t, e.conversations.calls)
}

func TestSummaryFailureDoesNotFailSend(t *testing.T) {
	e := newEnv()
	alice := e.connect("alice")

	e.conversations.err = errors.New("summary store down")

	_, err := e.dispatcher.Send(context.Background(), "alice", "bob", "x")
	require.NoError(t, err)
	require.Len(t, alice.Frames(), 1)
	assert.Equal(t, model.FrameMessageSent, alice.Frames()[0].(*model.MessageFrame).Type)
}

func TestSendOrderPreserved(t *testing.T) {
	e := newEnv()
	e.connect("alice")
	bob := e.connect("bob")

	for _, content := range []string{"first", "second", "third"} {
		_, err := e.dispatcher.Send(context.Background(), "alice", "bob", content)
		require.NoError(t, err)
	}

	require.Len(t, e.messages.records, 3)
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, want, e.messages.records[i].Content)
	}

	frames := bob.Frames()
	require.Len(t, frames, 3)
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, want, frames[i].(*model.MessageFrame).Message.Content)
	}
}

func TestClosedSenderChannelDropsAckOnly(t *testing.T) {
	e := newEnv()
	alice := e.connect("alice")
	bob := e.connect("bob")
	alice.Close()

	_, err := e.dispatcher.Send(context.Background(), "alice", "bob", "x")
	require.NoError(t, err)

	assert.Empty(t, alice.Frames())
	require.Len(t, bob.Frames(), 1)
	assert.Equal(t, []string{model.FrameNewMessage}, frameTypes(bob.Frames()))
}

func TestBlockCheckFailureStopsSend(t *testing.T) {
	e := newEnv()
	e.blocks.err = errors.New("block store down")

	_, err := e.dispatcher.Send(context.Background(), "alice", "bob", "x")
	require.Error(t, err)
	assert.Empty(t, e.messages.records)
}

func TestSummarySnippetTruncated(t *testing.T) {
	e := newEnv()

	long := strings.Repeat("x", 1000)
	_, err := e.dispatcher.Send(context.Background(), "alice", "bob", long)
	require.NoError(t, err)

	// The stored record keeps the full payload; only the summary is cut.
	require.Len(t, e.messages.records, 1)
	assert.Len(t, e.messages.records[0].Content, 1000)

	require.Len(t, e.conversations.calls, 1)
	call := e.conversations.calls[0]
	assert.Len(t, call.lastMessage, 256)
	assert.Equal(t, "alice", call.lastSenderID)
	assert.Equal(t, model.PairKey("alice", "bob"), call.pairKey)
}
