package uno

import "errors"

// Move-level rejections. The engine performs no mutation when returning any
// of these; callers report the outcome and leave their state untouched.
var (
	// ErrIllegalMove covers both "card not in hand" and a failed legality
	// check against the table.
	ErrIllegalMove = errors.New("illegal move")

	// ErrNotYourTurn rejects an action from a seat other than the current one.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrGameOver rejects any mutation after a winner has been decided.
	ErrGameOver = errors.New("game is over")

	// ErrInvalidSeat rejects an out-of-range seat index.
	ErrInvalidSeat = errors.New("invalid seat")

	// ErrDeclineDeclaration rejects an UNO declaration outside the two-card
	// threshold or when it is already locked in.
	ErrDeclineDeclaration = errors.New("declaration not available")

	// ErrNotVulnerable rejects a catch against a player who declared, has
	// more than one card, is on turn, or was already penalized this window.
	ErrNotVulnerable = errors.New("player is not vulnerable")
)
