package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// EventFanout drains the relay's broadcast stream and delivers each event
// to every live connection plus the permanent sinks (search index,
// timeline). A single fanout goroutine keeps delivery in publish order.
type EventFanout struct {
	log         *slog.Logger
	broadcasts  <-chan event.DomainEvent
	registry    contract.IRegistry
	permanent   []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(
	log *slog.Logger,
	broadcasts <-chan event.DomainEvent,
	registry contract.IRegistry,
	sinkTimeout time.Duration,
	permanent ...contract.EventSink,
) *EventFanout {
	return &EventFanout{
		log:         log,
		broadcasts:  broadcasts,
		registry:    registry,
		permanent:   permanent,
		sinkTimeout: sinkTimeout,
	}
}

func (f *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-f.broadcasts:
			if !ok {
				return nil
			}
			f.dispatch(ctx, e)
		}
	}
}

func (f *EventFanout) dispatch(ctx context.Context, e event.DomainEvent) {
	delivered := f.registry.Broadcast(ctx, e, "")
	f.log.Debug("event dispatched",
		"event", e.EventName(),
		"delivered", delivered,
		"connections", f.registry.Len())

	for _, s := range f.permanent {
		sinkCtx, cancel := context.WithTimeout(ctx, f.sinkTimeout)
		if err := s.Consume(sinkCtx, e); err != nil {
			f.log.Warn("permanent sink failed",
				"sink", fmt.Sprintf("%T", s),
				"event", e.EventName(),
				"error", err)
		}
		cancel()
	}
}
