// Package event defines the broadcast payloads flowing from the relay
// to connected clients. Presence events are ephemeral: they exist only
// as broadcast payloads and are never persisted.
package event

import (
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventName() string
}

// UserJoined is announced to the whole live set, the joiner included.
type UserJoined struct {
	Username string
}

func (UserJoined) EventName() string { return "user-connected" }

// UserLeft is announced to the remaining live set after deregistration.
type UserLeft struct {
	Username string
}

func (UserLeft) EventName() string { return "user-disconnected" }

// MessageRelayed is emitted once a chat message has been durably appended.
// StorageKey is the key assigned by the message store.
type MessageRelayed struct {
	ID         uuid.UUID
	AuthorID   string
	Username   string
	Text       string
	StorageKey string
	At         time.Time
}

func (MessageRelayed) EventName() string { return "chat-message" }
