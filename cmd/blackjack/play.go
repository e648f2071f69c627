package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/quartz"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/session"
)

// PlayCmd runs an interactive terminal session
type PlayCmd struct {
	Player string         `short:"p" default:"player" help:"Player name; the session is saved under it"`
	Seed   *int64         `help:"Deterministic shoe seed (overrides config)"`
	Pace   *time.Duration `help:"Delay between dealer draws (overrides config)"`
}

func (c *PlayCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	level := "warn"
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}
	logger := newLogger(level)

	if c.Seed != nil {
		cfg.Session.Seed = *c.Seed
	}
	pace := cfg.Session.Pace
	if c.Pace != nil {
		pace = *c.Pace
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sess, err := session.Open(ctx, c.Player, store, sessionOptions(cfg, logger)...)
	if err != nil {
		return err
	}

	model := newTableModel(ctx, sess, session.NewDriver(quartz.NewReal(), pace, logger), logger)
	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal session failed: %w", err)
	}
	return nil
}

// command is one parsed input line
type command struct {
	name string
	bets game.Bets
}

const helpText = `Commands:
  bet MAIN [21+3 PAIRS BUST]   place bets and deal, e.g. "bet 10" or "bet 10 5 0 5"
  hit (h)  stand (s)  double (d)  split (p)
  new (n)                      clear the table after a round
  stats    history             show statistics or recent rounds
  clear-history                forget the history log
  help     quit (q)
`

// action maps a table command onto its game action
func (c command) action() game.Action {
	switch c.name {
	case "bet":
		return game.ActionStartRound
	case "hit":
		return game.ActionHit
	case "stand":
		return game.ActionStand
	case "double":
		return game.ActionDoubleDown
	case "split":
		return game.ActionSplit
	default:
		return game.ActionNewGame
	}
}

// parseCommand parses one line of input
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, errors.New("empty command")
	}

	switch name := fields[0]; name {
	case "bet", "b", "deal":
		if len(fields) < 2 || len(fields) > 5 {
			return command{}, errors.New("usage: bet MAIN [21+3 PAIRS BUST]")
		}
		amounts := make([]int, 4)
		for i, f := range fields[1:] {
			n, err := strconv.Atoi(f)
			if err != nil {
				return command{}, fmt.Errorf("invalid amount %q", f)
			}
			amounts[i] = n
		}
		return command{name: "bet", bets: game.Bets{
			Main:               amounts[0],
			TwentyOnePlusThree: amounts[1],
			PerfectPairs:       amounts[2],
			BustIt:             amounts[3],
		}}, nil
	case "hit", "h":
		return command{name: "hit"}, nil
	case "stand", "s":
		return command{name: "stand"}, nil
	case "double", "d":
		return command{name: "double"}, nil
	case "split", "p":
		return command{name: "split"}, nil
	case "new", "n":
		return command{name: "new"}, nil
	case "stats", "history", "clear-history", "help", "?":
		return command{name: name}, nil
	case "quit", "q", "exit":
		return command{name: "quit"}, nil
	default:
		return command{}, fmt.Errorf("unknown command %q (try help)", name)
	}
}
