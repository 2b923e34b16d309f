package models

import (
	"time"

	"github.com/google/uuid"
)

// Invite statuses.
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteDeclined = "declined"
)

// Invite asks another user to take a seat in a waiting game.
type Invite struct {
	ID         uuid.UUID `json:"id"`
	GameID     uuid.UUID `json:"game_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`

	// FromUsername is joined in for display; not a column on the invites table.
	FromUsername string `json:"from_username,omitempty"`
}
