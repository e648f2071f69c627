package game

import (
	"strings"

	"github.com/lox/blackjack/internal/deck"
)

// Hand is an ordered sequence of cards.
type Hand []deck.Card

// Value returns the best total: aces count 11 and are downgraded to 1 one at
// a time while the total exceeds 21.
func (h Hand) Value() int {
	total, _ := h.total()
	return total
}

// IsSoft reports whether an ace is still counted as 11.
func (h Hand) IsSoft() bool {
	_, soft := h.total()
	return soft
}

// IsBust reports whether the hand exceeds 21 with every ace counted as 1.
func (h Hand) IsBust() bool {
	return h.Value() > 21
}

// IsBlackjack reports whether the hand is exactly two cards totalling 21.
// Callers decide when this is meaningful; split hands never qualify.
func (h Hand) IsBlackjack() bool {
	return len(h) == 2 && h.Value() == 21
}

// String returns the cards separated by spaces, e.g. "A♠ K♦".
func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func (h Hand) total() (int, bool) {
	total, aces := 0, 0
	for _, c := range h {
		if c.IsAce() {
			aces++
		}
		total += c.Value()
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

func (h Hand) clone() Hand {
	if h == nil {
		return nil
	}
	out := make(Hand, len(h))
	copy(out, h)
	return out
}
