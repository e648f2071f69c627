package session

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjack/internal/game"
)

// DefaultPace is the delay between dealer draws.
const DefaultPace = time.Second

// Driver runs a session's pending continuations, waiting pace between steps.
type Driver struct {
	clock  quartz.Clock
	pace   time.Duration
	logger *log.Logger
}

// NewDriver creates a driver. A non-positive pace steps without waiting and
// a nil clock uses the wall clock. A nil logger uses the default logger.
func NewDriver(clock quartz.Clock, pace time.Duration, logger *log.Logger) *Driver {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Driver{
		clock:  clock,
		pace:   pace,
		logger: logger.WithPrefix("driver"),
	}
}

// Run steps s until nothing is pending, passing each outcome to emit. It
// stops early when ctx is cancelled; the round stays where it was and a
// later Run picks it up.
func (d *Driver) Run(ctx context.Context, s *Session, emit func(*game.Outcome)) error {
	for s.Pending() != game.ContinueNone {
		out, err := d.Next(ctx, s)
		if out != nil && emit != nil {
			emit(out)
		}
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}
	}
	return nil
}

// Next waits one pace and runs a single pending step. It returns nil, nil
// when nothing is pending.
func (d *Driver) Next(ctx context.Context, s *Session) (*game.Outcome, error) {
	if s.Pending() == game.ContinueNone {
		return nil, nil
	}
	if err := d.wait(ctx); err != nil {
		return nil, err
	}

	out, err := s.Step(ctx)
	if errors.Is(err, game.ErrIllegalAction) {
		// Another caller drained the continuation first.
		return nil, nil
	}
	return out, err
}

func (d *Driver) wait(ctx context.Context) error {
	if d.pace <= 0 {
		return ctx.Err()
	}

	fired := make(chan struct{})
	timer := d.clock.AfterFunc(d.pace, func() {
		close(fired)
	})
	defer timer.Stop()

	select {
	case <-fired:
		return nil
	case <-ctx.Done():
		d.logger.Debug("Driver cancelled", "error", ctx.Err())
		return ctx.Err()
	}
}
