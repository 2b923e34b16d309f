package uno

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unogo/unogo/internal/models"
)

func card(id string, color models.CardColor, value models.CardValue) models.Card {
	return models.Card{ID: id, Color: color, Value: value}
}

// TestCanPlay covers the legality matrix: wilds always, color matches against
// the effective color, value matches only against a non-wild top.
func TestCanPlay(t *testing.T) {
	redFive := card("r5", models.ColorRed, "5")
	blueFive := card("b5", models.ColorBlue, "5")
	blueSkip := card("bs", models.ColorBlue, models.ValueSkip)
	greenSkip := card("gs", models.ColorGreen, models.ValueSkip)
	wild := card("w", models.ColorWild, models.ValueWild)
	wildFour := card("w4", models.ColorWild, models.ValueWildDrawFour)

	tests := []struct {
		name  string
		play  models.Card
		top   models.Card
		color models.CardColor
		want  bool
	}{
		{"wild on anything", wild, redFive, models.ColorRed, true},
		{"wild draw four on anything", wildFour, blueSkip, models.ColorBlue, true},
		{"color match", redFive, card("r9", models.ColorRed, "9"), models.ColorRed, true},
		{"value match across colors", blueFive, redFive, models.ColorRed, true},
		{"action value match", greenSkip, blueSkip, models.ColorBlue, true},
		{"no match", greenSkip, redFive, models.ColorRed, false},
		{"color match beats top card color", blueFive, redFive, models.ColorBlue, true},
		{"no value match against wild top", blueFive, wild, models.ColorRed, false},
		{"color match against wild top", blueFive, wild, models.ColorBlue, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPlay(tt.play, tt.top, tt.color))
		})
	}
}

// TestPlayableCards filters a hand while preserving hand order.
func TestPlayableCards(t *testing.T) {
	top := card("r5", models.ColorRed, "5")
	hand := []models.Card{
		card("g9", models.ColorGreen, "9"),
		card("r1", models.ColorRed, "1"),
		card("b5", models.ColorBlue, "5"),
		card("w", models.ColorWild, models.ValueWild),
	}
	got := PlayableCards(hand, top, models.ColorRed)
	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"r1", "b5", "w"}, ids)

	assert.Empty(t, PlayableCards([]models.Card{card("g9", models.ColorGreen, "9")}, top, models.ColorRed))
}
