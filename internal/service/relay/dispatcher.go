package relay

import (
	"context"

	"e2e_relay/internal/model"
	"e2e_relay/internal/service/registry"
	"e2e_relay/internal/utils/log"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRequest rejects self-sends, empty recipients, and empty
	// payloads before any side effect happens.
	ErrInvalidRequest = errors.New("invalid send request")
	// ErrBlocked rejects sends between users with a block edge in either
	// direction.
	ErrBlocked = errors.New("sending is not allowed between these users")
)

type (
	// MessageStore must not return a record unless it is durable.
	MessageStore interface {
		Insert(ctx context.Context, senderID, receiverID, content string) (*model.Message, error)
	}

	BlockStore interface {
		IsBlocked(ctx context.Context, a, b string) (bool, error)
	}

	ConversationStore interface {
		Upsert(ctx context.Context, a, b, lastMessage, lastSenderID string) error
	}

	SessionLookup interface {
		Lookup(userID string) (registry.Channel, bool)
	}

	// Dispatcher runs the relay send pipeline. It never mutates block state
	// and never touches message content beyond copying it.
	Dispatcher struct {
		messages      MessageStore
		blocks        BlockStore
		conversations ConversationStore
		sessions      SessionLookup
		snippetLen    int
	}
)

func NewDispatcher(messages MessageStore, blocks BlockStore, conversations ConversationStore, sessions SessionLookup, snippetLen int) *Dispatcher {
	return &Dispatcher{
		messages:      messages,
		blocks:        blocks,
		conversations: conversations,
		sessions:      sessions,
		snippetLen:    snippetLen,
	}
}

// Send relays one message. Step order is load-bearing: validation, then block
// check, then the durable write, and only after the write confirms do the
// sender acknowledgment and the live push to the recipient happen. A failure
// leaves no partial state. The returned record is the persisted one.
func (d *Dispatcher) Send(ctx context.Context, senderID, receiverID, content string) (*model.Message, error) {
	if receiverID == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "receiverId is required")
	}
	if receiverID == senderID {
		return nil, errors.Wrap(ErrInvalidRequest, "cannot send a message to yourself")
	}
	if content == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "content is required")
	}

	blocked, err := d.blocks.IsBlocked(ctx, senderID, receiverID)
	if err != nil {
		return nil, errors.Wrap(err, "check block state")
	}
	if blocked {
		return nil, ErrBlocked
	}

	msg, err := d.messages.Insert(ctx, senderID, receiverID, content)
	if err != nil {
		return nil, errors.Wrap(err, "persist message")
	}

	// The summary is a read cache; its failure never fails a send.
	if err := d.conversations.Upsert(ctx, senderID, receiverID, snippet(msg.Content, d.snippetLen), senderID); err != nil {
		log.Error("upsert conversation summary failed", zap.Error(err))
	}

	// Fire-and-forget from here: either channel may have closed since lookup,
	// and a failed write just means that side is gone.
	if ch, ok := d.sessions.Lookup(senderID); ok {
		if err := ch.Send(model.MessageSentFrame(msg)); err != nil {
			log.Debug("sender ack dropped", zap.Error(err))
		}
	}

	if ch, ok := d.sessions.Lookup(receiverID); ok {
		if err := ch.Send(model.NewMessageFrame(msg)); err != nil {
			log.Debug("recipient push dropped", zap.Error(err))
		}
	}

	return msg, nil
}

func snippet(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max])
}
