package uno

import (
	"math/rand"

	"github.com/unogo/unogo/internal/models"
)

// advance steps a seat index once in the given direction with wrap-around.
func advance(i, direction, numPlayers int) int {
	return (i + direction + numPlayers) % numPlayers
}

// drawOne moves the top draw-pile card into the given seat's hand, turning
// over the discard pile (minus its top card) first if the draw pile ran out.
// Returns false when both piles are exhausted. Assumes s is a private copy.
func drawOne(s *GameState, seat int, r *rand.Rand) bool {
	if len(s.DrawPile) == 0 {
		if len(s.DiscardPile) <= 1 {
			return false
		}
		top := s.DiscardPile[len(s.DiscardPile)-1]
		s.DrawPile = Shuffle(s.DiscardPile[:len(s.DiscardPile)-1], r)
		s.DiscardPile = []models.Card{top}
	}
	card := s.DrawPile[len(s.DrawPile)-1]
	s.DrawPile = s.DrawPile[:len(s.DrawPile)-1]
	s.Players[seat].Hand = append(s.Players[seat].Hand, card)
	return true
}

// guardAction applies the shared preconditions for turn-gated actions.
func guardAction(s *GameState, seat int) error {
	if s.GameOver {
		return ErrGameOver
	}
	if seat < 0 || seat >= len(s.Players) {
		return ErrInvalidSeat
	}
	if seat != s.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	return nil
}

// ResolvePlay plays the identified card from seat's hand and resolves every
// consequence of it: effective color, direction and skip bookkeeping, forced
// draws for the next seat, turn advancement, and winner detection. The input
// state is never touched; on any rejection it is returned unchanged alongside
// the error.
//
// For wild cards chosen names the new effective color. An unset or invalid
// choice falls back to red; the fallback is a documented default for clients
// that never send a color, not intended UX.
func ResolvePlay(s GameState, seat int, cardID string, chosen models.CardColor, r *rand.Rand) (GameState, error) {
	if err := guardAction(&s, seat); err != nil {
		return s, err
	}

	handIdx := -1
	for i, c := range s.Players[seat].Hand {
		if c.ID == cardID {
			handIdx = i
			break
		}
	}
	if handIdx == -1 {
		return s, ErrIllegalMove
	}
	card := s.Players[seat].Hand[handIdx]
	top, ok := s.TopDiscard()
	if !ok || !CanPlay(card, top, s.CurrentColor) {
		return s, ErrIllegalMove
	}

	next := s.Clone()
	actor := &next.Players[seat]
	actor.Hand = append(actor.Hand[:handIdx], actor.Hand[handIdx+1:]...)
	next.DiscardPile = append(next.DiscardPile, card)

	// A declaration made at two cards survives the play that brings the hand
	// to one; any other size keeps no declaration. The penalty window resets
	// because the hand size changed.
	actor.DeclaredUno = len(actor.Hand) == 1 && actor.DeclaredUno
	actor.PenaltyApplied = false

	if card.IsWild() {
		if !models.ValidTableColor(chosen) {
			chosen = models.ColorRed
		}
		next.CurrentColor = chosen
	} else {
		next.CurrentColor = card.Color
	}

	skipNext := false
	drawAmount := 0
	switch card.Value {
	case models.ValueReverse:
		next.Direction = -next.Direction
		// With two seats the reversed "next" player is the actor, so a
		// reverse behaves exactly like a skip.
		if len(next.Players) == 2 {
			skipNext = true
		}
	case models.ValueSkip:
		skipNext = true
	case models.ValueDrawTwo:
		drawAmount = 2
		skipNext = true
	case models.ValueWildDrawFour:
		drawAmount = 4
		skipNext = true
	}

	nextIdx := advance(seat, next.Direction, len(next.Players))
	if drawAmount > 0 {
		target := &next.Players[nextIdx]
		for i := 0; i < drawAmount; i++ {
			if !drawOne(&next, nextIdx, r) {
				break
			}
		}
		target.DeclaredUno = false
		target.PenaltyApplied = false
	}
	if skipNext {
		nextIdx = advance(nextIdx, next.Direction, len(next.Players))
	}
	next.CurrentPlayerIndex = nextIdx

	if len(next.Players[seat].Hand) == 0 {
		next.GameOver = true
		next.WinnerID = next.Players[seat].ID
	}
	return next, nil
}

// ResolveDraw takes one card from the draw pile into seat's hand and advances
// the turn a single step. Drawing invalidates a prior UNO declaration since
// the hand size changed. When both piles are exhausted the action degrades to
// a no-op that still advances the turn.
func ResolveDraw(s GameState, seat int, r *rand.Rand) (GameState, error) {
	if err := guardAction(&s, seat); err != nil {
		return s, err
	}

	next := s.Clone()
	if drawOne(&next, seat, r) {
		next.Players[seat].DeclaredUno = false
		next.Players[seat].PenaltyApplied = false
	}
	next.CurrentPlayerIndex = advance(seat, next.Direction, len(next.Players))
	return next, nil
}
