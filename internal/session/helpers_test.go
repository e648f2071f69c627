package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjack/internal/deck"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func mockClock(t *testing.T) *quartz.Mock {
	t.Helper()
	clk := quartz.NewMock(t)
	clk.Set(fixedNow)
	return clk
}

// stackedShoe deals a fixed sequence: player, dealer up, player, hole, then
// later draws.
type stackedShoe struct {
	mu    sync.Mutex
	cards []deck.Card
}

func stack(cards string) *stackedShoe {
	return &stackedShoe{cards: deck.MustParseCards(cards)}
}

func (s *stackedShoe) Draw() deck.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cards) == 0 {
		panic("stacked shoe exhausted")
	}
	c := s.cards[0]
	s.cards = s.cards[1:]
	return c
}

// countingStore wraps a MemoryStore and counts saves, optionally failing them.
type countingStore struct {
	*MemoryStore
	mu    sync.Mutex
	saves int
	fail  bool
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: NewMemoryStore()}
}

func (c *countingStore) Save(ctx context.Context, snap *Snapshot) error {
	c.mu.Lock()
	c.saves++
	fail := c.fail
	c.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return c.MemoryStore.Save(ctx, snap)
}

func (c *countingStore) Saves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}
