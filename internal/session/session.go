// Package session wraps a game table in an explicit, persistent player
// session.
//
// A Session serializes every action behind a mutex, loads its bankroll,
// statistics and history from a Store when opened, and saves them again after
// each settlement or side-bet credit. The Driver runs the table's pending
// continuations at a configurable pace.
package session

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/randutil"
)

// DefaultStartingBankroll is the balance given to a player with no snapshot.
const DefaultStartingBankroll = 1000

// Session is one player's table plus its persistence.
type Session struct {
	mu     sync.Mutex
	player string
	table  *game.Table
	store  Store
	clock  quartz.Clock
	logger *log.Logger
}

type options struct {
	logger   *log.Logger
	clock    quartz.Clock
	rules    game.Rules
	bankroll int
	shoe     game.CardSource
	rng      *rand.Rand
	subs     []game.EventSubscriber
}

// Option configures a Session when it is opened.
type Option func(*options)

// WithLogger sets the session logger
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock sets the clock used for history and snapshot timestamps
func WithClock(clock quartz.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithRules sets the table rules
func WithRules(rules game.Rules) Option {
	return func(o *options) { o.rules = rules }
}

// WithStartingBankroll sets the balance used when no snapshot exists
func WithStartingBankroll(amount int) Option {
	return func(o *options) { o.bankroll = amount }
}

// WithShoe replaces the shuffled shoe with a fixed card source
func WithShoe(src game.CardSource) Option {
	return func(o *options) { o.shoe = src }
}

// WithSeed makes the shoe reproducible
func WithSeed(seed int64) Option {
	return func(o *options) { o.rng = randutil.New(seed) }
}

// WithSubscriber registers a table event subscriber
func WithSubscriber(sub game.EventSubscriber) Option {
	return func(o *options) { o.subs = append(o.subs, sub) }
}

// Open loads the player's snapshot from store, or starts fresh when there is
// none, and returns a session in the betting phase.
func Open(ctx context.Context, player string, store Store, opts ...Option) (*Session, error) {
	if player == "" {
		return nil, fmt.Errorf("player name is required")
	}

	o := options{
		rules:    game.DefaultRules(),
		bankroll: DefaultStartingBankroll,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.clock == nil {
		o.clock = quartz.NewReal()
	}
	if o.rng == nil && o.shoe == nil {
		o.rng = randutil.New(randutil.NewSeed())
	}
	if err := o.rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	s := &Session{
		player: player,
		store:  store,
		clock:  o.clock,
		logger: o.logger.WithPrefix("session"),
	}

	bankroll := o.bankroll
	book := ledger.New(o.rules.HistoryLimit)

	snap, err := store.Load(ctx, player)
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.Info("Starting new session", "player", player, "bankroll", bankroll)
	case err != nil:
		return nil, fmt.Errorf("failed to load session %s: %w", player, err)
	default:
		if err := snap.Validate(o.rules.HistoryLimit); err != nil {
			return nil, fmt.Errorf("invalid snapshot for %s: %w", player, err)
		}
		bankroll = snap.Bankroll
		book = ledger.Restore(snap.Stats, snap.History, o.rules.HistoryLimit)
		s.logger.Info("Restored session", "player", player, "bankroll", bankroll, "played", snap.Stats.GamesPlayed)
	}

	tableOpts := []game.TableOption{
		game.WithRules(o.rules),
		game.WithBankroll(bankroll),
		game.WithLedger(book),
		game.WithClock(func() time.Time { return o.clock.Now() }),
	}
	if o.shoe != nil {
		tableOpts = append(tableOpts, game.WithShoe(o.shoe))
	}
	for _, sub := range o.subs {
		tableOpts = append(tableOpts, game.WithSubscriber(sub))
	}
	s.table = game.NewTable(o.rng, tableOpts...)
	return s, nil
}

// Player returns the session's player name
func (s *Session) Player() string { return s.player }

// StartRound places bets and deals
func (s *Session) StartRound(ctx context.Context, bets game.Bets) (*game.Outcome, error) {
	return s.apply(ctx, game.ActionStartRound, func() (*game.Outcome, error) {
		return s.table.StartRound(bets)
	})
}

// Hit deals a card to the active hand
func (s *Session) Hit(ctx context.Context) (*game.Outcome, error) {
	return s.apply(ctx, game.ActionHit, s.table.Hit)
}

// Stand finishes the active hand
func (s *Session) Stand(ctx context.Context) (*game.Outcome, error) {
	return s.apply(ctx, game.ActionStand, s.table.Stand)
}

// DoubleDown doubles the active hand's stake for one card
func (s *Session) DoubleDown(ctx context.Context) (*game.Outcome, error) {
	return s.apply(ctx, game.ActionDoubleDown, s.table.DoubleDown)
}

// Split splits a pair into two hands
func (s *Session) Split(ctx context.Context) (*game.Outcome, error) {
	return s.apply(ctx, game.ActionSplit, s.table.Split)
}

// Step runs one pending continuation
func (s *Session) Step(ctx context.Context) (*game.Outcome, error) {
	return s.apply(ctx, game.ActionStep, s.table.Step)
}

// NewGame clears a finished round
func (s *Session) NewGame(ctx context.Context) (*game.Outcome, error) {
	return s.apply(ctx, game.ActionNewGame, s.table.NewGame)
}

// Do dispatches an action by name. Bets are only read for ActionStartRound.
func (s *Session) Do(ctx context.Context, action game.Action, bets game.Bets) (*game.Outcome, error) {
	switch action {
	case game.ActionStartRound:
		return s.StartRound(ctx, bets)
	case game.ActionHit:
		return s.Hit(ctx)
	case game.ActionStand:
		return s.Stand(ctx)
	case game.ActionDoubleDown:
		return s.DoubleDown(ctx)
	case game.ActionSplit:
		return s.Split(ctx)
	case game.ActionStep:
		return s.Step(ctx)
	case game.ActionNewGame:
		return s.NewGame(ctx)
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

// Pending returns the table's scheduled continuation
func (s *Session) Pending() game.Continuation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Pending()
}

// State returns the visible table state
func (s *Session) State() game.TableState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.State()
}

// Stats returns the current statistics
func (s *Session) Stats() ledger.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Ledger().Stats()
}

// History returns the history log, most recent first
func (s *Session) History() []ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Ledger().History()
}

// Snapshot returns the state that would be persisted now
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ClearHistory empties the history log and saves.
func (s *Session) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table.Ledger().ClearHistory()
	return s.saveLocked(ctx)
}

// Save persists the session immediately.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Session) apply(ctx context.Context, action game.Action, fn func() (*game.Outcome, error)) (*game.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := fn()
	if err != nil {
		s.logger.Debug("Action rejected", "player", s.player, "action", action, "error", err)
		return nil, err
	}

	if out.Settlement != nil {
		s.logger.Info("Round settled",
			"player", s.player,
			"round", out.Settlement.RoundID,
			"result", out.Settlement.Result,
			"net", out.Settlement.Net,
			"bankroll", out.Bankroll)
	}

	// A failed save does not undo the round.
	if out.Settlement != nil || out.SideBetWins > 0 {
		if err := s.saveLocked(ctx); err != nil {
			s.logger.Error("Failed to save session", "player", s.player, "error", err)
			return out, err
		}
	}
	return out, nil
}

func (s *Session) snapshotLocked() Snapshot {
	book := s.table.Ledger()
	return Snapshot{
		Player:   s.player,
		Bankroll: s.table.Bankroll(),
		Stats:    book.Stats(),
		History:  book.History(),
		SavedAt:  s.clock.Now(),
	}
}

func (s *Session) saveLocked(ctx context.Context) error {
	snap := s.snapshotLocked()
	if err := s.store.Save(ctx, &snap); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.player, err)
	}
	s.logger.Debug("Saved session", "player", s.player, "bankroll", snap.Bankroll, "history", len(snap.History))
	return nil
}
