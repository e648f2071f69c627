package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjack/internal/server"
	"github.com/lox/blackjack/internal/session"
)

// ServeCmd runs the WebSocket service
type ServeCmd struct {
	Addr string         `short:"a" help:"Address to bind to (overrides config)"`
	Pace *time.Duration `help:"Delay between dealer draws (overrides config)"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Server.LogLevel)

	addr := cfg.Addr()
	if c.Addr != "" {
		addr = c.Addr
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

	driver := session.NewDriver(quartz.NewReal(), pace, logger)
	srv := server.NewServer(store, driver, logger, sessionOptions(cfg, logger)...)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting blackjack server",
		"addr", addr,
		"store", cfg.Store.Driver,
		"pace", pace,
		"house_edge", cfg.Rules.HouseEdge)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		readyCtx, cancel := context.WithTimeout(gctx, 10*time.Second)
		defer cancel()
		if err := server.WaitForHealthy(readyCtx, baseURL(addr)); err != nil {
			logger.Warn("Server did not report healthy", "error", err)
			return nil
		}
		logger.Info("Server ready", "url", baseURL(addr))
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		_ = srv.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// baseURL turns a listen address into a URL reachable from this host
func baseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
