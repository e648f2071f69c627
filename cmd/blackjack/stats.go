package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sanity-io/litter"

	"github.com/lox/blackjack/internal/session"
)

// StatsCmd prints a player's saved statistics
type StatsCmd struct {
	Player       string `short:"p" default:"player" help:"Player name"`
	History      int    `short:"n" default:"10" help:"Number of history entries to show"`
	Dump         bool   `help:"Dump the raw snapshot for debugging"`
	ClearHistory bool   `help:"Clear the player's history log"`
}

func (c *StatsCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Server.LogLevel)
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if c.ClearHistory {
		sess, err := session.Open(ctx, c.Player, store, sessionOptions(cfg, logger)...)
		if err != nil {
			return err
		}
		if err := sess.ClearHistory(ctx); err != nil {
			return err
		}
		logger.Info("Cleared history", "player", c.Player)
	}

	snap, err := store.Load(ctx, c.Player)
	if errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("no saved session for %q", c.Player)
	}
	if err != nil {
		return err
	}

	if c.Dump {
		litter.Config.HidePrivateFields = false
		fmt.Fprintln(os.Stdout, litter.Sdump(snap))
		return nil
	}

	fmt.Println(titleStyle.Render(" " + snap.Player + " "))
	fmt.Println()
	fmt.Print(renderStats(snap.Stats, snap.Bankroll))
	fmt.Println()
	fmt.Print(renderHistory(snap.History, c.History))
	return nil
}
