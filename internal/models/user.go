package models

import "github.com/google/uuid"

// User is an account row. Ephemeral users are created on the fly for guests
// playing solo and can later be claimed with real credentials.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Username string    `json:"username"`

	IsEphemeral bool `json:"is_ephemeral"`
}
