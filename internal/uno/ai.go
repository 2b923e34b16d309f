package uno

import "github.com/unogo/unogo/internal/models"

// MoveAction is what the AI decided to do.
type MoveAction string

const (
	ActionPlay MoveAction = "play"
	ActionDraw MoveAction = "draw"
)

// Move is an AI decision. ChosenColor is set only for wild plays.
type Move struct {
	Action      MoveAction
	Card        models.Card
	ChosenColor models.CardColor
}

// ChooseMove picks a move for a computer seat. The heuristic is intentionally
// simple and fully deterministic for a fixed hand and table: prefer numeric
// cards, then colored action cards, and spend wilds only as a last resort, in
// hand order within each class. Randomness belongs to shuffling, never here,
// so AI behavior is reproducible.
func ChooseMove(s *GameState, seat int) Move {
	top, ok := s.TopDiscard()
	if !ok {
		return Move{Action: ActionDraw}
	}
	playable := PlayableCards(s.Players[seat].Hand, top, s.CurrentColor)
	if len(playable) == 0 {
		return Move{Action: ActionDraw}
	}

	var numbers, actions, wilds []models.Card
	for _, c := range playable {
		switch {
		case c.IsWild():
			wilds = append(wilds, c)
		case c.IsAction():
			actions = append(actions, c)
		default:
			numbers = append(numbers, c)
		}
	}

	var pick models.Card
	switch {
	case len(numbers) > 0:
		pick = numbers[0]
	case len(actions) > 0:
		pick = actions[0]
	default:
		pick = wilds[0]
	}

	move := Move{Action: ActionPlay, Card: pick}
	if pick.IsWild() {
		move.ChosenColor = ChooseWildColor(s.Players[seat].Hand)
	}
	return move
}

// ChooseWildColor returns the color most represented in the hand, breaking
// ties by the fixed table color order. A hand of nothing but wilds gets red.
func ChooseWildColor(hand []models.Card) models.CardColor {
	counts := make(map[models.CardColor]int, len(models.TableColors))
	for _, c := range hand {
		if !c.IsWild() {
			counts[c.Color]++
		}
	}
	best := models.ColorRed
	bestCount := -1
	for _, color := range models.TableColors {
		if counts[color] > bestCount {
			best = color
			bestCount = counts[color]
		}
	}
	return best
}
