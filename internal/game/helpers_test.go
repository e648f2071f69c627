package game

import (
	"testing"
	"time"

	"github.com/lox/blackjack/internal/deck"
)

// stackedShoe deals a fixed sequence of cards in order.
type stackedShoe struct {
	cards []deck.Card
	next  int
}

func stack(cards string) *stackedShoe {
	return &stackedShoe{cards: deck.MustParseCards(cards)}
}

func (s *stackedShoe) Draw() deck.Card {
	if s.next >= len(s.cards) {
		panic("stacked shoe exhausted")
	}
	c := s.cards[s.next]
	s.next++
	return c
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newStackedTable builds a table dealing cards in the given order: player,
// dealer upcard, player, hole card, then every later draw.
func newStackedTable(t *testing.T, cards string, opts ...TableOption) *Table {
	t.Helper()
	base := []TableOption{
		WithShoe(stack(cards)),
		WithBankroll(1000),
		WithClock(func() time.Time { return fixedNow }),
		WithRoundIDs(func() string { return "round-1" }),
	}
	return NewTable(nil, append(base, opts...)...)
}
