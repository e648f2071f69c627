// Package ledger tracks running session statistics and a bounded log of
// settled rounds.
package ledger

import (
	"fmt"
	"time"

	"github.com/lox/blackjack/internal/deck"
)

// DefaultHistoryLimit is the number of settled rounds kept in the history log.
const DefaultHistoryLimit = 50

// Result is the overall outcome of a round from the player's point of view.
type Result int

const (
	Loss Result = iota
	Win
	Push
)

// String returns the string representation of the result
func (r Result) String() string {
	switch r {
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Push:
		return "push"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Result) UnmarshalText(text []byte) error {
	switch string(text) {
	case "win":
		*r = Win
	case "loss":
		*r = Loss
	case "push":
		*r = Push
	default:
		return fmt.Errorf("unknown result %q", text)
	}
	return nil
}

// Statistics holds the monotonically accumulating session counters.
type Statistics struct {
	GamesPlayed       int `json:"gamesPlayed"`
	GamesWon          int `json:"gamesWon"`
	GamesPushed       int `json:"gamesPushed"`
	Blackjacks        int `json:"blackjacks"`
	TotalWagered      int `json:"totalWagered"`
	NetProfit         int `json:"netProfit"`
	CurrentWinStreak  int `json:"currentWinStreak"`
	MaxWinStreak      int `json:"maxWinStreak"`
	CurrentLoseStreak int `json:"currentLoseStreak"`
	MaxLoseStreak     int `json:"maxLoseStreak"`
}

// WinRate returns games won as a fraction of games played
func (s Statistics) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.GamesWon) / float64(s.GamesPlayed)
}

// Entry is one settled round in the history log.
type Entry struct {
	ID          string        `json:"id"`
	Result      string        `json:"result"`
	Net         int           `json:"amount"`
	Win         bool          `json:"isWin"`
	Outcome     Result        `json:"outcome"`
	Timestamp   time.Time     `json:"timestamp"`
	PlayerHands [][]deck.Card `json:"playerHands"`
	DealerHand  []deck.Card   `json:"dealerHand"`
	Split       bool          `json:"isSplit"`
}

// Ledger combines statistics with the most-recent-first history log.
type Ledger struct {
	stats   Statistics
	history []Entry
	limit   int
}

// New creates an empty ledger keeping at most limit history entries.
// A non-positive limit selects DefaultHistoryLimit.
func New(limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Ledger{limit: limit}
}

// Restore rebuilds a ledger from persisted state, trimming history to the limit.
func Restore(stats Statistics, history []Entry, limit int) *Ledger {
	l := New(limit)
	l.stats = stats
	l.history = append([]Entry(nil), history...)
	l.truncate()
	return l
}

// Stats returns a copy of the current statistics
func (l *Ledger) Stats() Statistics {
	return l.stats
}

// History returns a copy of the history log, most recent first
func (l *Ledger) History() []Entry {
	out := make([]Entry, len(l.history))
	copy(out, l.history)
	return out
}

// Limit returns the history capacity
func (l *Ledger) Limit() int {
	return l.limit
}

// AddWager accumulates an amount staked into the total-wagered counter.
func (l *Ledger) AddWager(amount int) {
	l.stats.TotalWagered += amount
}

// AddProfit adjusts net profit by a signed amount.
func (l *Ledger) AddProfit(amount int) {
	l.stats.NetProfit += amount
}

// RecordBlackjack counts a natural dealt to the player.
func (l *Ledger) RecordBlackjack() {
	l.stats.Blackjacks++
}

// RecordRoundEnd updates the played counter and streaks. Pushes count as
// played but leave both streaks as they were.
func (l *Ledger) RecordRoundEnd(result Result) {
	s := &l.stats
	s.GamesPlayed++

	switch result {
	case Win:
		s.GamesWon++
		s.CurrentWinStreak++
		s.CurrentLoseStreak = 0
		s.MaxWinStreak = max(s.MaxWinStreak, s.CurrentWinStreak)
	case Loss:
		s.CurrentLoseStreak++
		s.CurrentWinStreak = 0
		s.MaxLoseStreak = max(s.MaxLoseStreak, s.CurrentLoseStreak)
	case Push:
		s.GamesPushed++
	}
}

// AppendHistory prepends an entry and drops the oldest beyond the limit.
func (l *Ledger) AppendHistory(entry Entry) {
	l.history = append([]Entry{entry}, l.history...)
	l.truncate()
}

// ClearHistory empties the history log without touching statistics.
func (l *Ledger) ClearHistory() {
	l.history = nil
}

func (l *Ledger) truncate() {
	if len(l.history) > l.limit {
		l.history = l.history[:l.limit]
	}
}

// Validate performs consistency checks on the counters
func (l *Ledger) Validate() error {
	s := l.stats
	if s.GamesPlayed < 0 || s.GamesWon < 0 || s.TotalWagered < 0 {
		return fmt.Errorf("negative counter: played=%d won=%d wagered=%d", s.GamesPlayed, s.GamesWon, s.TotalWagered)
	}
	if s.GamesWon+s.GamesPushed > s.GamesPlayed {
		return fmt.Errorf("won (%d) plus pushed (%d) exceeds played (%d)", s.GamesWon, s.GamesPushed, s.GamesPlayed)
	}
	if s.CurrentWinStreak > s.MaxWinStreak {
		return fmt.Errorf("current win streak %d exceeds max %d", s.CurrentWinStreak, s.MaxWinStreak)
	}
	if s.CurrentLoseStreak > s.MaxLoseStreak {
		return fmt.Errorf("current lose streak %d exceeds max %d", s.CurrentLoseStreak, s.MaxLoseStreak)
	}
	if s.CurrentWinStreak > 0 && s.CurrentLoseStreak > 0 {
		return fmt.Errorf("both streaks active: win=%d lose=%d", s.CurrentWinStreak, s.CurrentLoseStreak)
	}
	if len(l.history) > l.limit {
		return fmt.Errorf("history length %d exceeds limit %d", len(l.history), l.limit)
	}
	return nil
}
