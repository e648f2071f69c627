package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/ledger"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)

	_, err = store.Load(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	snap := &Snapshot{
		Player:   "alice",
		Bankroll: 1250,
		Stats:    ledger.Statistics{GamesPlayed: 3, GamesWon: 2, CurrentWinStreak: 2, MaxWinStreak: 2},
		History: []ledger.Entry{
			{ID: "r2", Result: "You win!", Net: 9, Win: true, Outcome: ledger.Win, Timestamp: fixedNow},
		},
		SavedAt: fixedNow,
	}
	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, snap.Bankroll, got.Bankroll)
	assert.Equal(t, snap.Stats, got.Stats)
	require.Len(t, got.History, 1)
	assert.True(t, fixedNow.Equal(got.History[0].Timestamp))

	raw, err := os.ReadFile(store.Path("alice"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"timestamp": "2024-03-01T12:00:00Z"`)
	assert.Contains(t, string(raw), `"isWin": true`)
}

func TestFileStorePathIsSanitized(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "..%2Fetc%2Fpasswd.json"), store.Path("../etc/passwd"))
	assert.Equal(t, dir, filepath.Dir(store.Path("a/b")))
}

func TestFileStoreNamesDoNotCollide(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	names := []string{"a b", "a_b", "a%20b", "a/b", "a_b.json"}
	paths := make(map[string]string)
	for i, name := range names {
		path := store.Path(name)
		prev, dup := paths[path]
		assert.False(t, dup, "%q and %q share %s", prev, name, path)
		paths[path] = name

		require.NoError(t, store.Save(ctx, &Snapshot{Player: name, Bankroll: 100 * (i + 1)}))
	}

	for i, name := range names {
		got, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, name, got.Player)
		assert.Equal(t, 100*(i+1), got.Bankroll)
	}
}

func TestFileStoreRejectsForeignSnapshot(t *testing.T) {
	t.Parallel()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	// A file placed under dave's name that holds erin's snapshot.
	raw := []byte(`{"player":"erin","bankroll":5000}`)
	require.NoError(t, os.WriteFile(store.Path("dave"), raw, 0o644))

	_, err = store.Load(context.Background(), "dave")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `belongs to "erin"`)
}

func TestFileStoreCorruptFile(t *testing.T) {
	t.Parallel()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path("bob"), []byte("{not json"), 0o644))

	_, err = store.Load(context.Background(), "bob")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSessionWithFileStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	s, err := Open(ctx, "carol", store, WithLogger(testLogger()), WithClock(mockClock(t)), WithShoe(stack("Ts 9c 9d 9h")))
	require.NoError(t, err)
	_, err = s.StartRound(ctx, game.Bets{Main: 10})
	require.NoError(t, err)
	_, err = s.Stand(ctx)
	require.NoError(t, err)
	require.NoError(t, NewDriver(nil, 0, testLogger()).Run(ctx, s, nil))

	again, err := Open(ctx, "carol", store, WithLogger(testLogger()), WithSeed(5))
	require.NoError(t, err)
	assert.Equal(t, 1009, again.State().Bankroll)
	assert.Equal(t, 1, again.Stats().CurrentWinStreak)
}
