package ws

import (
	"chat-relay/domain/event"
	"chat-relay/observability"
	"context"
	"log/slog"
)

// Sink is the per-connection delivery buffer between the fanout worker and
// the websocket write pump. Consume never blocks: when the buffer is full
// the event is counted as dropped and the rest of the room is unaffected.
type Sink struct {
	events chan event.DomainEvent
	stats  *observability.Stats
	log    *slog.Logger
}

func NewSink(bufferSize int, stats *observability.Stats, log *slog.Logger) *Sink {
	return &Sink{
		events: make(chan event.DomainEvent, bufferSize),
		stats:  stats,
		log:    log,
	}
}

func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.stats.IncrDroppedDelivery()
		s.log.Debug("slow consumer, event dropped", "event", e.EventName())
		return nil
	}
}

// Events is drained by the connection's write pump.
func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}
