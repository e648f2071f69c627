package session

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/game"
)

func openStood(t *testing.T, cards string) *Session {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, "driver", NewMemoryStore(), WithLogger(testLogger()), WithShoe(stack(cards)))
	require.NoError(t, err)
	_, err = s.StartRound(ctx, game.Bets{Main: 10})
	require.NoError(t, err)
	_, err = s.Stand(ctx)
	require.NoError(t, err)
	return s
}

func TestDriverRunsDealerToSettlement(t *testing.T) {
	t.Parallel()
	s := openStood(t, "Ts Tc 8d 4h 2c 5s")

	var outs []*game.Outcome
	err := NewDriver(nil, 0, testLogger()).Run(context.Background(), s, func(o *game.Outcome) {
		outs = append(outs, o)
	})
	require.NoError(t, err)

	// 14 -> 16 -> 21, then settle.
	require.Len(t, outs, 3)
	assert.Nil(t, outs[0].Settlement)
	assert.Nil(t, outs[1].Settlement)
	require.NotNil(t, outs[2].Settlement)
	assert.Equal(t, game.PhaseFinished, s.State().Phase)
	assert.Equal(t, game.ContinueNone, s.Pending())
}

func TestDriverNothingPending(t *testing.T) {
	t.Parallel()
	s, err := Open(context.Background(), "idle", NewMemoryStore(), WithLogger(testLogger()), WithSeed(1))
	require.NoError(t, err)

	called := false
	err = NewDriver(nil, time.Hour, testLogger()).Run(context.Background(), s, func(*game.Outcome) { called = true })
	require.NoError(t, err)
	assert.False(t, called)
}

func TestDriverHonoursCancellation(t *testing.T) {
	t.Parallel()
	s := openStood(t, "Ts Tc 8d 4h 2c 5s")
	clk := quartz.NewMock(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewDriver(clk, time.Second, testLogger()).Run(ctx, s, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, game.ContinueDealer, s.Pending())
	assert.Len(t, s.State().Dealer, 2)
}

func TestDriverWaitsOnMockClock(t *testing.T) {
	t.Parallel()
	s := openStood(t, "Ts Tc 8d 4h 2c 5s")
	clk := quartz.NewMock(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- NewDriver(clk, time.Second, testLogger()).Run(ctx, s, nil)
	}()

	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.Equal(t, game.PhaseFinished, s.State().Phase)
			return
		case <-ctx.Done():
			t.Fatal("driver did not finish")
		default:
		}
		time.Sleep(10 * time.Millisecond)
		clk.Advance(time.Second).MustWait(ctx)
	}
}

func TestDriverRealClock(t *testing.T) {
	t.Parallel()
	s := openStood(t, "Ts 9c 9d 9h")

	start := time.Now()
	err := NewDriver(quartz.NewReal(), time.Millisecond, testLogger()).Run(context.Background(), s, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
	assert.Equal(t, game.PhaseFinished, s.State().Phase)
}

func TestDriverNextStepsOnce(t *testing.T) {
	t.Parallel()
	s := openStood(t, "Ts Tc 8d 4h 2c 5s")
	d := NewDriver(nil, 0, testLogger())
	ctx := context.Background()

	out, err := d.Next(ctx, s)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Len(t, s.State().Dealer, 3)
	assert.Equal(t, game.ContinueDealer, s.Pending())

	for s.Pending() != game.ContinueNone {
		_, err = d.Next(ctx, s)
		require.NoError(t, err)
	}

	out, err = d.Next(ctx, s)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, game.PhaseFinished, s.State().Phase)
}

func TestDriverNilLogger(t *testing.T) {
	t.Parallel()
	s := openStood(t, "Ts Tc 8d 4h 2c 5s")

	var d *Driver
	require.NotPanics(t, func() { d = NewDriver(nil, 0, nil) })
	require.NoError(t, d.Run(context.Background(), s, nil))
	assert.Equal(t, game.PhaseFinished, s.State().Phase)
}
