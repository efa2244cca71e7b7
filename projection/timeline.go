package projection

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"sync"
)

// Timeline keeps an in-memory ring of the most recent relayed messages.
// It consumes broadcast events like any other sink, so it only ever sees
// messages that were durably persisted.
type Timeline struct {
	mu       sync.RWMutex
	messages []domain.ChatMessage
	size     int
}

func NewTimeline(size int) *Timeline {
	if size <= 0 {
		size = 50
	}
	return &Timeline{size: size}
}

// Consume records MessageRelayed events and ignores presence events.
func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	relayed, ok := e.(event.MessageRelayed)
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = append(t.messages, domain.ChatMessage{
		ID:             relayed.ID,
		AuthorID:       relayed.AuthorID,
		AuthorUsername: relayed.Username,
		Text:           relayed.Text,
		CreatedAt:      relayed.At,
	})
	if len(t.messages) > t.size {
		t.messages = t.messages[len(t.messages)-t.size:]
	}
	return nil
}

// Recent returns a copy of the buffered messages, oldest first.
func (t *Timeline) Recent() []domain.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}
