package session

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/ledger"
)

// Set BLACKJACK_TEST_DSN to run against a real database.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("BLACKJACK_TEST_DSN")
	if dsn == "" {
		t.Skip("BLACKJACK_TEST_DSN not set")
	}
	ctx := context.Background()

	store, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	player := "pg-test-" + t.Name()
	_, err = store.Load(ctx, player+"-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	snap := &Snapshot{
		Player:   player,
		Bankroll: 900,
		Stats:    ledger.Statistics{GamesPlayed: 1, CurrentLoseStreak: 1, MaxLoseStreak: 1, TotalWagered: 100, NetProfit: -100},
		SavedAt:  fixedNow,
	}
	require.NoError(t, store.Save(ctx, snap))
	snap.Bankroll = 950
	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Load(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, 950, got.Bankroll)
	assert.Equal(t, snap.Stats, got.Stats)
}
