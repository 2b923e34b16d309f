package uno

import (
	"fmt"
	"math/rand"

	"github.com/unogo/unogo/internal/models"
)

// BuildDeck enumerates the full 108-card composition deterministically: per
// color one 0, two each of 1-9, two skips, two reverses, two draw-twos, plus
// four wilds and four wild-draw-fours. Card ids are stable across calls.
func BuildDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	next := 0
	add := func(color models.CardColor, value models.CardValue) {
		deck = append(deck, models.Card{
			ID:    fmt.Sprintf("card_%d", next),
			Color: color,
			Value: value,
		})
		next++
	}

	for _, color := range models.TableColors {
		add(color, models.NumberValues[0])
		for n := 1; n <= 9; n++ {
			add(color, models.NumberValues[n])
			add(color, models.NumberValues[n])
		}
		for _, v := range []models.CardValue{models.ValueSkip, models.ValueReverse, models.ValueDrawTwo} {
			add(color, v)
			add(color, v)
		}
	}
	for i := 0; i < 4; i++ {
		add(models.ColorWild, models.ValueWild)
		add(models.ColorWild, models.ValueWildDrawFour)
	}
	return deck
}

// Shuffle returns a Fisher-Yates permutation of cards drawn from r. The input
// slice is not modified. Threading the generator explicitly keeps game setup
// reproducible under a fixed seed.
func Shuffle(cards []models.Card, r *rand.Rand) []models.Card {
	out := append([]models.Card(nil), cards...)
	for i := len(out) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Deal pops handSize cards per seat in seating order, no replacement, and
// returns the hands plus the remaining deck.
func Deal(deck []models.Card, numPlayers, handSize int) ([][]models.Card, []models.Card, error) {
	if numPlayers*handSize > len(deck) {
		return nil, nil, fmt.Errorf("cannot deal %d cards to %d players from a %d-card deck", handSize, numPlayers, len(deck))
	}
	rest := append([]models.Card(nil), deck...)
	hands := make([][]models.Card, numPlayers)
	for i := 0; i < numPlayers; i++ {
		hands[i] = append([]models.Card(nil), rest[:handSize]...)
		rest = rest[handSize:]
	}
	return hands, rest, nil
}

// StartingCard removes the first non-wild card from the deck to seed the
// discard pile, so a game never opens on an ambiguous color.
func StartingCard(deck []models.Card) (models.Card, []models.Card, error) {
	for i, c := range deck {
		if !c.IsWild() {
			rest := append([]models.Card(nil), deck[:i]...)
			rest = append(rest, deck[i+1:]...)
			return c, rest, nil
		}
	}
	return models.Card{}, nil, fmt.Errorf("no non-wild card available in deck of %d", len(deck))
}

// SeatInfo names one seat for game setup.
type SeatInfo struct {
	ID   string
	Name string
	IsAI bool
}

// NewGame builds, shuffles and deals a fresh game: seven cards per seat and a
// non-wild starter on the discard pile. Seat 0 moves first.
func NewGame(seats []SeatInfo, r *rand.Rand) (GameState, error) {
	if len(seats) < MinPlayers || len(seats) > MaxPlayers {
		return GameState{}, fmt.Errorf("game needs %d-%d seats, got %d", MinPlayers, MaxPlayers, len(seats))
	}

	deck := Shuffle(BuildDeck(), r)
	hands, rest, err := Deal(deck, len(seats), HandSize)
	if err != nil {
		return GameState{}, err
	}
	starter, rest, err := StartingCard(rest)
	if err != nil {
		return GameState{}, err
	}

	players := make([]Player, len(seats))
	for i, seat := range seats {
		players[i] = Player{
			ID:   seat.ID,
			Name: seat.Name,
			IsAI: seat.IsAI,
			Hand: hands[i],
		}
	}

	return GameState{
		Players:            players,
		CurrentPlayerIndex: 0,
		Direction:          1,
		DrawPile:           rest,
		DiscardPile:        []models.Card{starter},
		CurrentColor:       starter.Color,
	}, nil
}
