package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Connection ties an authenticated identity to its delivery sink.
type Connection struct {
	ID     string
	Claims domain.Claims
	sink   contract.EventSink
}

func NewConnection(claims domain.Claims, sink contract.EventSink) *Connection {
	return &Connection{
		ID:     uuid.NewString(),
		Claims: claims,
		sink:   sink,
	}
}

// Registry tracks the set of live connections. It is the single source of
// truth for who receives a broadcast; everything else (store, index,
// timeline) hangs off the event stream instead.
type Registry struct {
	mu              sync.RWMutex
	connections     map[string]*Connection
	deliveryTimeout time.Duration
	log             *slog.Logger
}

func NewRegistry(deliveryTimeout time.Duration, log *slog.Logger) *Registry {
	return &Registry{
		connections:     make(map[string]*Connection),
		deliveryTimeout: deliveryTimeout,
		log:             log,
	}
}

// Register adds a connection. Registering an ID twice is a programming
// error surfaced as ErrDuplicateConnection rather than silently replacing
// the previous sink.
func (r *Registry) Register(conn *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connections[conn.ID]; exists {
		return errors.ErrDuplicateConnection
	}
	r.connections[conn.ID] = conn
	return nil
}

// Deregister removes a connection and returns the claims it carried so the
// caller can announce the departure. A second deregister of the same ID
// returns ErrConnectionNotFound, which callers treat as already-gone.
func (r *Registry) Deregister(connID string) (domain.Claims, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.connections[connID]
	if !exists {
		return domain.Claims{}, errors.ErrConnectionNotFound
	}
	delete(r.connections, connID)
	return conn.Claims, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// Broadcast delivers an event to every live connection except exceptID.
// Connections are snapshotted under the read lock, then each sink gets its
// own bounded delivery attempt: one slow or failing recipient never stalls
// or aborts the rest. Returns the number of successful deliveries.
func (r *Registry) Broadcast(ctx context.Context, e event.DomainEvent, exceptID string) int {
	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.connections))
	for id, conn := range r.connections {
		if id == exceptID {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		deliveryCtx, cancel := context.WithTimeout(ctx, r.deliveryTimeout)
		err := conn.sink.Consume(deliveryCtx, e)
		cancel()
		if err != nil {
			r.log.Warn("delivery failed",
				"connection", conn.ID,
				"username", conn.Claims.Username,
				"event", e.EventName(),
				"error", err)
			continue
		}
		delivered++
	}
	return delivered
}
