package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// Relay is the core of the service: it accepts authenticated connections,
// persists every chat message before it reaches anyone, and feeds the
// broadcast stream that the fanout worker drains.
//
// Ordering guarantee: Publish is called from each connection's read loop,
// so messages from one sender enter the broadcasts channel in send order,
// and the single fanout worker preserves that order on delivery.
type Relay struct {
	log        *slog.Logger
	registry   *Registry
	store      repositories.IMessageRepository
	moderator  *moderation.Moderator
	presence   *PresenceNotifier
	broadcasts chan event.DomainEvent
	stats      *observability.Stats
}

func NewRelay(
	log *slog.Logger,
	registry *Registry,
	store repositories.IMessageRepository,
	moderator *moderation.Moderator,
	stats *observability.Stats,
	bufferSize int,
) *Relay {
	broadcasts := make(chan event.DomainEvent, bufferSize)
	return &Relay{
		log:        log,
		registry:   registry,
		store:      store,
		moderator:  moderator,
		presence:   NewPresenceNotifier(broadcasts, log),
		broadcasts: broadcasts,
		stats:      stats,
	}
}

// Broadcasts exposes the event stream for the fanout worker.
func (r *Relay) Broadcasts() <-chan event.DomainEvent {
	return r.broadcasts
}

func (r *Relay) Registry() *Registry {
	return r.registry
}

// Join registers an authenticated connection and announces it to everyone,
// including the newcomer's own sink.
func (r *Relay) Join(ctx context.Context, claims domain.Claims, sink contract.EventSink) (*Connection, error) {
	conn := NewConnection(claims, sink)
	if err := r.registry.Register(conn); err != nil {
		return nil, err
	}

	r.stats.ConnOpened()
	r.log.Info("user joined", "username", claims.Username, "connection", conn.ID)
	r.presence.AnnounceJoined(ctx, claims.Username)
	return conn, nil
}

// Publish runs the full inbound pipeline for one message: moderate,
// persist, then enqueue for broadcast. A message that fails to persist is
// dropped without notice and the connection stays live; nothing is ever
// broadcast that is not on disk first.
func (r *Relay) Publish(ctx context.Context, conn *Connection, text string) error {
	if r.moderator != nil {
		censored, masked := r.moderator.Censor(text)
		if masked {
			info := whatlanggo.Detect(text)
			r.log.Info("message censored",
				"username", conn.Claims.Username,
				"lang", info.Lang.Iso6391())
			text = censored
		}
	}

	message := domain.ChatMessage{
		ID:             uuid.New(),
		AuthorID:       conn.Claims.ID,
		AuthorUsername: conn.Claims.Username,
		Text:           text,
		CreatedAt:      time.Now().UTC(),
	}

	key, err := r.store.Append(repositories.StoredMessage{
		ID:       message.ID,
		AuthorID: message.AuthorID,
		Author:   message.AuthorUsername,
		Text:     message.Text,
		At:       message.CreatedAt,
	})
	if err != nil {
		r.stats.IncrPersistFailure()
		r.log.Error("message dropped, persistence failed",
			"username", conn.Claims.Username,
			"error", err)
		return nil
	}

	relayed := event.MessageRelayed{
		ID:         message.ID,
		AuthorID:   message.AuthorID,
		Username:   message.AuthorUsername,
		Text:       message.Text,
		StorageKey: key,
		At:         message.CreatedAt,
	}

	select {
	case r.broadcasts <- relayed:
		r.stats.IncrRelayed()
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Leave removes a connection and announces the departure. It tolerates
// duplicate calls: the read loop and the write pump may both observe the
// close, but only the first caller triggers the UserLeft event.
func (r *Relay) Leave(ctx context.Context, connID string) {
	claims, err := r.registry.Deregister(connID)
	if err != nil {
		if stderrors.Is(err, errors.ErrConnectionNotFound) {
			r.log.Debug("connection already removed", "connection", connID)
			return
		}
		r.log.Error("deregister failed", "connection", connID, "error", err)
		return
	}

	r.stats.ConnClosed()
	r.log.Info("user left", "username", claims.Username, "connection", connID)
	r.presence.AnnounceLeft(ctx, claims.Username)
}
