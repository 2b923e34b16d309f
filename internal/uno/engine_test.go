package uno

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unogo/unogo/internal/models"
)

// buildState makes a small hand-crafted table: empty hands, direction +1,
// seat 0 to move, the given draw pile and a single top discard.
func buildState(numPlayers int, draw []models.Card, top models.Card) GameState {
	players := make([]Player, numPlayers)
	for i := range players {
		players[i] = Player{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Player %d", i)}
	}
	return GameState{
		Players:      players,
		Direction:    1,
		DrawPile:     draw,
		DiscardPile:  []models.Card{top},
		CurrentColor: top.Color,
	}
}

func testRng() *rand.Rand { return rand.New(rand.NewSource(99)) }

// TestResolvePlayBasic plays a color-matched number card and checks the turn,
// the discard pile and the effective color.
func TestResolvePlayBasic(t *testing.T) {
	st := buildState(3, nil, card("r5", models.ColorRed, "5"))
	st.Players[0].Hand = []models.Card{card("r9", models.ColorRed, "9"), card("g2", models.ColorGreen, "2")}

	next, err := ResolvePlay(st, 0, "r9", "", testRng())
	require.NoError(t, err)

	assert.Equal(t, 1, next.CurrentPlayerIndex)
	assert.Len(t, next.Players[0].Hand, 1)
	assert.Equal(t, "g2", next.Players[0].Hand[0].ID)
	top, ok := next.TopDiscard()
	require.True(t, ok)
	assert.Equal(t, "r9", top.ID)
	assert.Equal(t, models.ColorRed, next.CurrentColor)
	assert.False(t, next.GameOver)
}

// TestResolvePlayRejections checks every precondition error and that a
// rejected action leaves the state untouched.
func TestResolvePlayRejections(t *testing.T) {
	st := buildState(2, nil, card("r5", models.ColorRed, "5"))
	st.Players[0].Hand = []models.Card{card("g2", models.ColorGreen, "2")}
	st.Players[1].Hand = []models.Card{card("r1", models.ColorRed, "1")}

	_, err := ResolvePlay(st, 1, "r1", "", testRng())
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = ResolvePlay(st, 0, "nope", "", testRng())
	assert.ErrorIs(t, err, ErrIllegalMove, "card not in hand")

	_, err = ResolvePlay(st, 0, "g2", "", testRng())
	assert.ErrorIs(t, err, ErrIllegalMove, "no color or value match")

	_, err = ResolvePlay(st, 5, "g2", "", testRng())
	assert.ErrorIs(t, err, ErrInvalidSeat)

	over := st.Clone()
	over.GameOver = true
	_, err = ResolvePlay(over, 0, "g2", "", testRng())
	assert.ErrorIs(t, err, ErrGameOver)
}

// TestResolvePlayDoesNotMutateInput pins the engine's purity: the caller's
// state is identical before and after a successful resolution.
func TestResolvePlayDoesNotMutateInput(t *testing.T) {
	st := buildState(2, []models.Card{card("b3", models.ColorBlue, "3")}, card("r5", models.ColorRed, "5"))
	st.Players[0].Hand = []models.Card{card("r9", models.ColorRed, "9")}
	st.Players[1].Hand = []models.Card{card("g2", models.ColorGreen, "2")}
	snapshot := st.Clone()

	_, err := ResolvePlay(st, 0, "r9", "", testRng())
	require.NoError(t, err)
	assert.Equal(t, snapshot, st)
}

// TestReverseFlipsDirection verifies the flip happens before the next seat is
// computed: with three seats, seat 0 reversing hands the turn to seat 2.
func TestReverseFlipsDirection(t *testing.T) {
	st := buildState(3, nil, card("r5", models.ColorRed, "5"))
	st.Players[0].Hand = []models.Card{card("rr", models.ColorRed, models.ValueReverse), card("x", models.ColorRed, "1")}

	next, err := ResolvePlay(st, 0, "rr", "", testRng())
	require.NoError(t, err)
	assert.Equal(t, -1, next.Direction)
	assert.Equal(t, 2, next.CurrentPlayerIndex)
}

// TestReverseTwoPlayersActsAsSkip: heads-up, a reverse gives the actor another
// turn.
func TestReverseTwoPlayersActsAsSkip(t *testing.T) {
	st := buildState(2, nil, card("r5", models.ColorRed, "5"))
	st.Players[0].Hand = []models.Card{card("rr", models.ColorRed, models.ValueReverse), card("x", models.ColorRed, "1")}

	next, err := ResolvePlay(st, 0, "rr", "", testRng())
	require.NoError(t, err)
	assert.Equal(t, -1, next.Direction)
	assert.Equal(t, 0, next.CurrentPlayerIndex, "reverse heads-up is a skip")
}

// TestSkip bypasses exactly one seat.
func TestSkip(t *testing.T) {
	st := buildState(3, nil, card("r5", models.ColorRed, "5"))
	st.Players[0].Hand = []models.Card{card("rs", models.ColorRed, models.ValueSkip), card("x", models.ColorRed, "1")}

	next, err := ResolvePlay(st, 0, "rs", "", testRng())
	require.NoError(t, err)
	assert.Equal(t, 2, next.CurrentPlayerIndex)
}

// TestDrawTwo forces the next seat to draw two and lose their turn, clearing
// any declaration they held.
func TestDrawTwo(t *testing.T) {
	draw := []models.Card{card("d1", models.ColorBlue, "1"), card("d2", models.ColorBlue, "2")}
	st := buildState(3, draw, card("r5", models.ColorRed, "5"))
	st.Players[0].Hand = []models.Card{card("rd", models.ColorRed, models.ValueDrawTwo), card("x", models.ColorRed, "1")}
	st.Players[1].Hand = []models.Card{card("y", models.ColorGreen, "3")}
	st.Players[1].DeclaredUno = true

	next, err := ResolvePlay(st, 0, "rd", "", testRng())
	require.NoError(t, err)
	assert.Len(t, next.Players[1].Hand, 3, "target drew two")
	assert.Empty(t, next.DrawPile)
	assert.False(t, next.Players[1].DeclaredUno, "forced draws clear the declaration")
	assert.Equal(t, 2, next.CurrentPlayerIndex, "target is bypassed")
}

// TestWildDrawFour applies the chosen color and a four-card forced draw.
func TestWildDrawFour(t *testing.T) {
	draw := []models.Card{
		card("d1", models.ColorBlue, "1"), card("d2", models.ColorBlue, "2"),
		card("d3", models.ColorBlue, "3"), card("d4", models.ColorBlue, "4"),
	}
	st := buildState(2, draw, card("r5", models.ColorRed, "5"))
	st.Players[0].Hand = []models.Card{card("w4", models.ColorWild, models.ValueWildDrawFour), card("x", models.ColorRed, "1")}
	st.Players[1].Hand = []models.Card{card("y", models.ColorGreen, "3")}

	next, err := ResolvePlay(st, 0, "w4", models.ColorGreen, testRng())
	require.NoError(t, err)
	assert.Equal(t, models.ColorGreen, next.CurrentColor)
	assert.Len(t, next.Players[1].Hand, 5)
	assert.Equal(t, 0, next.CurrentPlayerIndex, "heads-up: target bypassed, actor again")
}

// TestWildColorFallback: a wild played without a valid color choice defaults
// to red.
func TestWildColorFallback(t *testing.T) {
	st := buildState(2, nil, card("b5", models.ColorBlue, "5"))
	st.Players[0].Hand = []models.Card{card("w", models.ColorWild, models.ValueWild), card("x", models.ColorRed, "1")}

	next, err := ResolvePlay(st, 0, "w", "", testRng())
	require.NoError(t, err)
	assert.Equal(t, models.ColorRed, next.CurrentColor)

	st2 := buildState(2, nil, card("b5", models.ColorBlue, "5"))
	st2.Players[0].Hand = []models.Card{card("w", models.ColorWild, models.ValueWild), card("x", models.ColorRed, "1")}
	next, err = ResolvePlay(st2, 0, "w", models.CardColor("purple"), testRng())
	require.NoError(t, err)
	assert.Equal(t, models.ColorRed, next.CurrentColor, "invalid choice also falls back")
}

// TestResolveDraw draws one card and passes a single step, invalidating the
// actor's declaration.
func TestResolveDraw(t *testing.T) {
	st := buildState(2, []models.Card{card("d1", models.ColorBlue, "1")}, card("r5", models.ColorRed, "5"))
	st.Players[0].Hand = []models.Card{card("x", models.ColorGreen, "2")}
	st.Players[0].DeclaredUno = true

	next, err := ResolveDraw(st, 0, testRng())
	require.NoError(t, err)
	assert.Len(t, next.Players[0].Hand, 2)
	assert.Empty(t, next.DrawPile)
	assert.False(t, next.Players[0].DeclaredUno)
	assert.Equal(t, 1, next.CurrentPlayerIndex)

	_, err = ResolveDraw(st, 1, testRng())
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

// TestResolveDrawReshufflesDiscard: an empty draw pile flips the discard pile
// minus its top card back into play.
func TestResolveDrawReshufflesDiscard(t *testing.T) {
	st := buildState(2, nil, card("r5", models.ColorRed, "5"))
	st.DiscardPile = []models.Card{
		card("g1", models.ColorGreen, "1"),
		card("b2", models.ColorBlue, "2"),
		card("r5", models.ColorRed, "5"),
	}

	next, err := ResolveDraw(st, 0, testRng())
	require.NoError(t, err)
	require.Len(t, next.DiscardPile, 1)
	assert.Equal(t, "r5", next.DiscardPile[0].ID, "top discard stays put")
	assert.Len(t, next.Players[0].Hand, 1)
	assert.Len(t, next.DrawPile, 1, "one reshuffled card drawn, one left")
}

// TestResolveDrawExhausted: with nothing to reshuffle the draw degrades to a
// pass that still advances the turn.
func TestResolveDrawExhausted(t *testing.T) {
	st := buildState(2, nil, card("r5", models.ColorRed, "5"))
	st.Players[0].DeclaredUno = true
	st.Players[0].Hand = []models.Card{card("x", models.ColorGreen, "2")}

	next, err := ResolveDraw(st, 0, testRng())
	require.NoError(t, err)
	assert.Len(t, next.Players[0].Hand, 1, "nothing drawn")
	assert.True(t, next.Players[0].DeclaredUno, "no hand change, declaration survives")
	assert.Equal(t, 1, next.CurrentPlayerIndex)
}

// TestWinnerDetection: emptying a hand ends the game immediately and freezes
// further actions.
func TestWinnerDetection(t *testing.T) {
	st := buildState(2, nil, card("r5", models.ColorRed, "5"))
	st.Players[0].Hand = []models.Card{card("r9", models.ColorRed, "9")}
	st.Players[0].DeclaredUno = true
	st.Players[1].Hand = []models.Card{card("y", models.ColorGreen, "3")}

	next, err := ResolvePlay(st, 0, "r9", "", testRng())
	require.NoError(t, err)
	assert.True(t, next.GameOver)
	assert.Equal(t, "p0", next.WinnerID)

	_, err = ResolvePlay(next, 1, "y", "", testRng())
	assert.ErrorIs(t, err, ErrGameOver)
	_, err = ResolveDraw(next, 1, testRng())
	assert.ErrorIs(t, err, ErrGameOver)
}

// TestPlayoutConservation runs full AI-vs-AI games under several seeds and
// validates every intermediate state: card conservation, color consistency
// and turn validity must hold after each resolution.
func TestPlayoutConservation(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		r := rand.New(rand.NewSource(seed))
		seats := []SeatInfo{
			{ID: "a", Name: "A", IsAI: true},
			{ID: "b", Name: "B", IsAI: true},
			{ID: "c", Name: "C", IsAI: true},
			{ID: "d", Name: "D", IsAI: true},
		}
		st, err := NewGame(seats, r)
		require.NoError(t, err)

		for steps := 0; steps < 2000 && !st.GameOver; steps++ {
			cur := st.CurrentPlayerIndex
			if DeclarationState(&st, cur) == StatusMustDeclare {
				declared, err := ResolveDeclare(st, cur)
				require.NoError(t, err)
				st = declared
			}
			move := ChooseMove(&st, cur)
			if move.Action == ActionPlay {
				st, err = ResolvePlay(st, cur, move.Card.ID, move.ChosenColor, r)
			} else {
				st, err = ResolveDraw(st, cur, r)
			}
			require.NoError(t, err, "seed %d step %d", seed, steps)
			require.NoError(t, st.Validate(), "seed %d step %d", seed, steps)
		}
		if st.GameOver {
			winner := st.SeatOf(st.WinnerID)
			require.NotEqual(t, -1, winner)
			assert.Empty(t, st.Players[winner].Hand)
		}
	}
}
