package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lox/blackjack/internal/ledger"
)

// ErrNotFound is returned by a Store when no snapshot exists for a player.
var ErrNotFound = errors.New("session not found")

// Snapshot is the persisted state of a session. Nothing about an in-progress
// round is saved; a restored session always starts in the betting phase.
type Snapshot struct {
	Player   string            `json:"player"`
	Bankroll int               `json:"bankroll"`
	Stats    ledger.Statistics `json:"stats"`
	History  []ledger.Entry    `json:"history"`
	SavedAt  time.Time         `json:"savedAt"`
}

// Validate checks a loaded snapshot before it is restored into a ledger
// keeping at most historyLimit entries.
func (s *Snapshot) Validate(historyLimit int) error {
	if s.Player == "" {
		return fmt.Errorf("snapshot has no player")
	}
	if s.Bankroll < 0 {
		return fmt.Errorf("snapshot for %s has negative bankroll %d", s.Player, s.Bankroll)
	}
	if len(s.History) > historyLimit {
		return fmt.Errorf("snapshot for %s has %d history entries, limit is %d", s.Player, len(s.History), historyLimit)
	}
	return ledger.Restore(s.Stats, nil, historyLimit).Validate()
}

// Store loads and saves snapshots by player name.
type Store interface {
	Load(ctx context.Context, player string) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}

// MemoryStore keeps snapshots in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]Snapshot)}
}

// Load returns a copy of the stored snapshot
func (m *MemoryStore) Load(_ context.Context, player string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snaps[player]
	if !ok {
		return nil, ErrNotFound
	}
	snap.History = append([]ledger.Entry(nil), snap.History...)
	return &snap, nil
}

// Save stores a copy of the snapshot
func (m *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *snap
	cp.History = append([]ledger.Entry(nil), snap.History...)
	m.snaps[snap.Player] = cp
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }

// OpenStore creates a store by driver name: "memory", "file" (snapshots under
// dir) or "postgres" (connecting to dsn).
func OpenStore(ctx context.Context, driver, dir, dsn string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(dir)
	case "postgres":
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
