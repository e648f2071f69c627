package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/session"
)

// loadConfig reads the config file and applies global flag overrides
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Store != "" {
		cfg.Store.Driver = c.Store
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger creates the stderr logger at the configured level
func newLogger(level string) *log.Logger {
	logger := log.New(os.Stderr)
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func openStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	store, err := session.OpenStore(ctx, cfg.Store.Driver, cfg.Store.Dir, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	return store, nil
}

// sessionOptions maps config onto session options
func sessionOptions(cfg *config.Config, logger *log.Logger) []session.Option {
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithRules(cfg.Rules),
		session.WithStartingBankroll(cfg.Session.StartingBankroll),
	}
	if cfg.Session.Seed != 0 {
		opts = append(opts, session.WithSeed(cfg.Session.Seed))
	}
	return opts
}

// signalContext creates a context that is cancelled on interrupt signals
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
