package models

import (
	"time"

	"github.com/google/uuid"
)

// Matchmaking queue statuses.
const (
	QueueWaiting = "waiting"
	QueueMatched = "matched"
)

// QueueEntry is one user waiting for a worldwide match.
type QueueEntry struct {
	UserID     uuid.UUID  `json:"user_id"`
	Status     string     `json:"status"`
	GameID     *uuid.UUID `json:"game_id,omitempty"` // set once matched
	EnqueuedAt time.Time  `json:"enqueued_at"`
}
