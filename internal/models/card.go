package models

import "fmt"

// CardColor is the printed color of a card. Wild cards carry ColorWild; the
// effective table color lives on the game record and is never "wild".
type CardColor string

const (
	ColorRed    CardColor = "red"
	ColorBlue   CardColor = "blue"
	ColorGreen  CardColor = "green"
	ColorYellow CardColor = "yellow"
	ColorWild   CardColor = "wild"
)

// TableColors lists the four concrete colors in a fixed order. The order is
// load-bearing: it is the tiebreak for the AI's wild color choice.
var TableColors = [4]CardColor{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// CardValue is the face value of a card.
type CardValue string

const (
	ValueSkip         CardValue = "skip"
	ValueReverse      CardValue = "reverse"
	ValueDrawTwo      CardValue = "draw2"
	ValueWild         CardValue = "wild"
	ValueWildDrawFour CardValue = "wild_draw4"
)

// NumberValues holds "0" through "9".
var NumberValues = [10]CardValue{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

// Card is an immutable value object. Cards are never mutated after deck
// construction, only moved between piles and hands.
type Card struct {
	ID    string    `json:"id"`
	Color CardColor `json:"color"`
	Value CardValue `json:"value"`
}

// IsWild reports whether the card is a wild or wild-draw-four.
func (c Card) IsWild() bool {
	return c.Color == ColorWild
}

// IsNumber reports whether the card has a numeric face value.
func (c Card) IsNumber() bool {
	for _, v := range NumberValues {
		if c.Value == v {
			return true
		}
	}
	return false
}

// IsAction reports whether the card is a colored action card (skip, reverse,
// draw-two). Wilds are not action cards in this sense.
func (c Card) IsAction() bool {
	switch c.Value {
	case ValueSkip, ValueReverse, ValueDrawTwo:
		return true
	}
	return false
}

// ValidColor reports whether col is one of the five printed colors.
func ValidColor(col CardColor) bool {
	switch col {
	case ColorRed, ColorBlue, ColorGreen, ColorYellow, ColorWild:
		return true
	}
	return false
}

// ValidTableColor reports whether col is a concrete (non-wild) color.
func ValidTableColor(col CardColor) bool {
	return ValidColor(col) && col != ColorWild
}

// Validate checks the color/value enums and their consistency. It is called
// at the serialization boundary so malformed external data cannot leak into
// the engine.
func (c Card) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("card has empty id")
	}
	if !ValidColor(c.Color) {
		return fmt.Errorf("card %s has invalid color %q", c.ID, c.Color)
	}
	wildValue := c.Value == ValueWild || c.Value == ValueWildDrawFour
	if c.Color == ColorWild != wildValue {
		return fmt.Errorf("card %s has inconsistent color %q for value %q", c.ID, c.Color, c.Value)
	}
	if wildValue || c.IsAction() || c.IsNumber() {
		return nil
	}
	return fmt.Errorf("card %s has invalid value %q", c.ID, c.Value)
}
