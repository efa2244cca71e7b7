package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage represents an immutable chat event.
// It is built by the relay from the sender's claims plus the inbound text,
// and must be persisted exactly once before it becomes eligible for broadcast.
type ChatMessage struct {
	ID             uuid.UUID
	AuthorID       string
	AuthorUsername string
	Text           string
	CreatedAt      time.Time // server-assigned at relay time
}
