package uno

import "github.com/unogo/unogo/internal/models"

// CanPlay reports whether card may be played on top given the effective table
// color. Wilds are always legal; otherwise a color match against the
// effective color or a value match against a non-wild top card is required.
func CanPlay(card, top models.Card, color models.CardColor) bool {
	if card.IsWild() {
		return true
	}
	if card.Color == color {
		return true
	}
	return !top.IsWild() && card.Value == top.Value
}

// PlayableCards filters hand down to the cards CanPlay accepts.
func PlayableCards(hand []models.Card, top models.Card, color models.CardColor) []models.Card {
	var out []models.Card
	for _, c := range hand {
		if CanPlay(c, top, color) {
			out = append(out, c)
		}
	}
	return out
}
