package runtime

import (
	"chat-relay/domain/event"
	"context"
	"log/slog"
)

// PresenceNotifier pushes join/leave announcements onto the broadcast
// stream. Presence events are not persisted; they only exist on the wire.
type PresenceNotifier struct {
	broadcasts chan<- event.DomainEvent
	log        *slog.Logger
}

func NewPresenceNotifier(broadcasts chan<- event.DomainEvent, log *slog.Logger) *PresenceNotifier {
	return &PresenceNotifier{broadcasts: broadcasts, log: log}
}

func (p *PresenceNotifier) AnnounceJoined(ctx context.Context, username string) {
	p.enqueue(ctx, event.UserJoined{Username: username})
}

func (p *PresenceNotifier) AnnounceLeft(ctx context.Context, username string) {
	p.enqueue(ctx, event.UserLeft{Username: username})
}

func (p *PresenceNotifier) enqueue(ctx context.Context, e event.DomainEvent) {
	select {
	case p.broadcasts <- e:
	case <-ctx.Done():
		p.log.Debug("presence event dropped, relay shutting down", "event", e.EventName())
	}
}
