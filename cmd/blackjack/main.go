package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Config   string           `short:"c" default:"blackjack.hcl" help:"Path to HCL configuration file"`
	LogLevel string           `short:"l" help:"Log level (overrides config)"`
	Store    string           `help:"Snapshot store: memory, file or postgres (overrides config)"`

	Play  PlayCmd  `cmd:"" default:"withargs" help:"Play blackjack in the terminal"`
	Serve ServeCmd `cmd:"" help:"Serve blackjack sessions over WebSocket"`
	Stats StatsCmd `cmd:"" help:"Show a player's statistics and history"`
}

func main() {
	// A .env file is optional; it usually carries DATABASE_URL.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Single-player casino blackjack"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
