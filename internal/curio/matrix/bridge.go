package matrix

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/museumops/curio/common/trace"
	"github.com/museumops/curio/internal/curio/dialogue"
	"github.com/museumops/curio/internal/curio/memory"
	"github.com/museumops/curio/internal/curio/observability"
)

// Sender is the subset of Client used by Bridge.
type Sender interface {
	SendMessage(roomID, message string) error
	SendFormattedMessage(roomID, html, plaintext string) error
	SetTyping(roomID string, typing bool, timeout time.Duration) error
}

// Bridge routes room messages to the conversation registry and posts the
// assistant replies back to the room.
type Bridge struct {
	sender   Sender
	registry *dialogue.Registry

	mu    sync.Mutex
	rooms map[string]string // conversation key → room ID
}

// NewBridge returns a Bridge posting through sender.
func NewBridge(sender Sender, registry *dialogue.Registry) *Bridge {
	return &Bridge{sender: sender, registry: registry, rooms: make(map[string]string)}
}

// Handle processes one room message. It satisfies MessageHandler.
func (b *Bridge) Handle(ctx context.Context, roomID, senderID, body string) {
	ctx = trace.WithTraceID(ctx, trace.GenerateID())
	key := dialogue.Key(roomID, senderID)
	logger := observability.WithTrace(ctx, nil).With("conversation", key)
	logger.Debug("matrix: message received", "room", roomID)
	b.mu.Lock()
	b.rooms[key] = roomID
	b.mu.Unlock()

	if err := b.sender.SetTyping(roomID, true, 30*time.Second); err != nil {
		logger.Debug("matrix: typing indicator failed", "room", roomID, "err", err)
	}
	replies := b.registry.Get(roomID, senderID).HandleText(ctx, body)
	if err := b.sender.SetTyping(roomID, false, 0); err != nil {
		logger.Debug("matrix: typing indicator failed", "room", roomID, "err", err)
	}

	for _, m := range replies {
		b.post(roomID, m)
	}
}

// Deliver posts an assistant message produced after the triggering event,
// such as a generation outcome. It satisfies dialogue.Hooks.Deliver.
func (b *Bridge) Deliver(key string, m memory.Message) {
	b.mu.Lock()
	roomID, ok := b.rooms[key]
	b.mu.Unlock()
	if !ok {
		// Conversation opened through another transport.
		return
	}
	b.post(roomID, m)
}

func (b *Bridge) post(roomID string, m memory.Message) {
	plain, formatted := Render(m)
	var err error
	if formatted == "" {
		err = b.sender.SendMessage(roomID, plain)
	} else {
		err = b.sender.SendFormattedMessage(roomID, formatted, plain)
	}
	if err != nil {
		slog.Warn("matrix: failed to post reply", "room", roomID, "message_id", m.ID, "err", err)
	}
}
