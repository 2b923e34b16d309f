package uno

import (
	"fmt"

	"github.com/unogo/unogo/internal/models"
)

// DeckSize is the total number of cards in play for one game, across all
// hands and piles, at all times.
const DeckSize = 108

// HandSize is the number of cards dealt to each seat at game start.
const HandSize = 7

// Seat count limits.
const (
	MinPlayers = 2
	MaxPlayers = 4
)

// Player is one seat's view inside the game aggregate. Hand order is only
// relevant to display; the rules never depend on it.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IsAI bool   `json:"is_ai"`

	Hand []models.Card `json:"hand"`

	// DeclaredUno is the player's explicit "UNO!" lock-in. It survives the
	// play that brings the hand to one card and clears on any other hand
	// size change.
	DeclaredUno bool `json:"declared_uno"`

	// PenaltyApplied marks that the missed-declaration penalty has already
	// been taken for the current vulnerability window. It resets whenever
	// the hand size changes again.
	PenaltyApplied bool `json:"penalty_applied"`
}

// GameState is the single mutable aggregate for an in-progress game. The
// engine never mutates a GameState it is given; every resolution works on a
// deep copy and returns it.
type GameState struct {
	Players            []Player         `json:"players"`
	CurrentPlayerIndex int              `json:"current_player_index"`
	Direction          int              `json:"direction"` // +1 or -1
	DrawPile           []models.Card    `json:"draw_pile"` // stack, top = last element
	DiscardPile        []models.Card    `json:"discard_pile"`
	CurrentColor       models.CardColor `json:"current_color"`
	WinnerID           string           `json:"winner_id,omitempty"`
	GameOver           bool             `json:"game_over"`
}

// TopDiscard returns the card legality is judged against.
func (s *GameState) TopDiscard() (models.Card, bool) {
	if len(s.DiscardPile) == 0 {
		return models.Card{}, false
	}
	return s.DiscardPile[len(s.DiscardPile)-1], true
}

// CardCount sums every container. It must equal DeckSize for a valid game.
func (s *GameState) CardCount() int {
	n := len(s.DrawPile) + len(s.DiscardPile)
	for i := range s.Players {
		n += len(s.Players[i].Hand)
	}
	return n
}

// SeatOf returns the seat index for a player id, or -1.
func (s *GameState) SeatOf(playerID string) int {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// Clone deep-copies the aggregate so resolutions stay pure.
func (s *GameState) Clone() GameState {
	out := *s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		cp := p
		cp.Hand = append([]models.Card(nil), p.Hand...)
		out.Players[i] = cp
	}
	out.DrawPile = append([]models.Card(nil), s.DrawPile...)
	out.DiscardPile = append([]models.Card(nil), s.DiscardPile...)
	return out
}

// Validate enforces the structural invariants: card conservation across all
// containers, color consistency with the top discard, turn validity, and the
// winner/game-over relationship. It is run at the serialization boundary.
func (s *GameState) Validate() error {
	if len(s.Players) < MinPlayers || len(s.Players) > MaxPlayers {
		return fmt.Errorf("invalid player count %d", len(s.Players))
	}
	if s.Direction != 1 && s.Direction != -1 {
		return fmt.Errorf("invalid direction %d", s.Direction)
	}
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return fmt.Errorf("current player index %d out of range", s.CurrentPlayerIndex)
	}
	if !models.ValidTableColor(s.CurrentColor) {
		return fmt.Errorf("invalid current color %q", s.CurrentColor)
	}

	seen := make(map[string]bool, DeckSize)
	check := func(cards []models.Card) error {
		for _, c := range cards {
			if err := c.Validate(); err != nil {
				return err
			}
			if seen[c.ID] {
				return fmt.Errorf("duplicate card %s", c.ID)
			}
			seen[c.ID] = true
		}
		return nil
	}
	if err := check(s.DrawPile); err != nil {
		return err
	}
	if err := check(s.DiscardPile); err != nil {
		return err
	}
	for i := range s.Players {
		if err := check(s.Players[i].Hand); err != nil {
			return err
		}
	}
	if n := s.CardCount(); n != DeckSize {
		return fmt.Errorf("card conservation violated: %d cards in play, want %d", n, DeckSize)
	}

	if top, ok := s.TopDiscard(); ok && !top.IsWild() && top.Color != s.CurrentColor {
		return fmt.Errorf("current color %q does not match top discard color %q", s.CurrentColor, top.Color)
	}

	emptyHands := 0
	for i := range s.Players {
		if len(s.Players[i].Hand) == 0 {
			emptyHands++
		}
	}
	if s.GameOver {
		if emptyHands != 1 {
			return fmt.Errorf("game over with %d empty hands", emptyHands)
		}
		if seat := s.SeatOf(s.WinnerID); seat == -1 || len(s.Players[seat].Hand) != 0 {
			return fmt.Errorf("winner %q does not hold the empty hand", s.WinnerID)
		}
	} else {
		if emptyHands != 0 {
			return fmt.Errorf("empty hand without game over")
		}
		if s.WinnerID != "" {
			return fmt.Errorf("winner set on a running game")
		}
	}
	return nil
}
