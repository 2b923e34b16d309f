package uno

import "math/rand"

// DeclarationStatus is one player's position in the declare/catch mini state
// machine. It is derived from hand size and the declaration flags rather than
// stored, so it can be evaluated passively after every state change.
type DeclarationStatus int

const (
	// StatusNormal carries no obligation.
	StatusNormal DeclarationStatus = iota
	// StatusMustDeclare offers the declare action: two cards in hand on the
	// player's own turn, nothing declared yet.
	StatusMustDeclare
	// StatusVulnerable means one card, no declaration, penalty not yet
	// taken: opponents may catch.
	StatusVulnerable
	// StatusDeclared means the player locked in UNO at or below two cards.
	StatusDeclared
)

func (d DeclarationStatus) String() string {
	switch d {
	case StatusMustDeclare:
		return "must_declare"
	case StatusVulnerable:
		return "vulnerable"
	case StatusDeclared:
		return "declared"
	default:
		return "normal"
	}
}

// DeclarationState classifies one seat. GameOver freezes everything at
// normal: there is nothing left to declare or catch.
func DeclarationState(s *GameState, seat int) DeclarationStatus {
	if s.GameOver || seat < 0 || seat >= len(s.Players) {
		return StatusNormal
	}
	p := &s.Players[seat]
	switch {
	case p.DeclaredUno && len(p.Hand) <= 2:
		return StatusDeclared
	case len(p.Hand) == 1 && !p.PenaltyApplied:
		return StatusVulnerable
	case len(p.Hand) == 2 && seat == s.CurrentPlayerIndex:
		return StatusMustDeclare
	default:
		return StatusNormal
	}
}

// ResolveDeclare locks in a seat's UNO declaration. It is legal whenever the
// hand holds at most two cards; declaring is not turn-gated so a player can
// still save themselves at one card before an opponent catches them.
func ResolveDeclare(s GameState, seat int) (GameState, error) {
	if s.GameOver {
		return s, ErrGameOver
	}
	if seat < 0 || seat >= len(s.Players) {
		return s, ErrInvalidSeat
	}
	if len(s.Players[seat].Hand) > 2 || s.Players[seat].DeclaredUno {
		return s, ErrDeclineDeclaration
	}
	next := s.Clone()
	next.Players[seat].DeclaredUno = true
	return next, nil
}

// ResolveCatch penalizes target for a missed declaration: two penalty cards
// from the draw pile, applied at most once per vulnerability window. A catch
// only lands while it is not the target's own turn, which is their window to
// declare. The caller's seat is not checked beyond not being the target.
func ResolveCatch(s GameState, catcher, target int, r *rand.Rand) (GameState, error) {
	if s.GameOver {
		return s, ErrGameOver
	}
	if catcher < 0 || catcher >= len(s.Players) || target < 0 || target >= len(s.Players) || catcher == target {
		return s, ErrInvalidSeat
	}
	p := &s.Players[target]
	if p.DeclaredUno || len(p.Hand) != 1 || p.PenaltyApplied || target == s.CurrentPlayerIndex {
		return s, ErrNotVulnerable
	}

	next := s.Clone()
	for i := 0; i < 2; i++ {
		if !drawOne(&next, target, r) {
			break
		}
	}
	// Set after the draws: drawOne grew the hand, which would otherwise be
	// indistinguishable from the next window opening.
	next.Players[target].PenaltyApplied = true
	next.Players[target].DeclaredUno = false
	return next, nil
}
