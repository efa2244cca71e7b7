package sink

import (
	"chat-relay/domain/event"
	"chat-relay/repositories"
	"context"
	"log/slog"
)

// IndexSink feeds relayed messages into the full-text index. Failures are
// logged and swallowed: search lagging behind must never break the relay.
type IndexSink struct {
	index repositories.ISearchIndex
	log   *slog.Logger
}

func NewIndexSink(index repositories.ISearchIndex, log *slog.Logger) *IndexSink {
	return &IndexSink{index: index, log: log}
}

func (s *IndexSink) Consume(_ context.Context, e event.DomainEvent) error {
	relayed, ok := e.(event.MessageRelayed)
	if !ok {
		return nil
	}

	err := s.index.Index(repositories.StoredMessage{
		ID:       relayed.ID,
		AuthorID: relayed.AuthorID,
		Author:   relayed.Username,
		Text:     relayed.Text,
		At:       relayed.At,
	})
	if err != nil {
		s.log.Error("failed to index message", "id", relayed.ID, "error", err)
	}
	return nil
}
