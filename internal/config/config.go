// Package config loads the HCL configuration shared by the blackjack
// commands.
//
// A file may contain any of four optional blocks:
//
//	rules {
//	  house_edge       = 0.995
//	  dealer_stands_on = 17
//	  auto_stand_on_21 = true
//	}
//
//	session {
//	  starting_bankroll = 1000
//	  pace              = "750ms"
//	}
//
//	server {
//	  address   = "localhost"
//	  port      = 8080
//	  log_level = "info"
//	}
//
//	store {
//	  driver  = "postgres"
//	  dsn_env = "DATABASE_URL"
//	}
//
// Anything left out keeps its default.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/blackjack/internal/game"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config is the resolved configuration.
type Config struct {
	Rules   game.Rules
	Session SessionSettings
	Server  ServerSettings
	Store   StoreSettings
}

// SessionSettings configures new player sessions
type SessionSettings struct {
	StartingBankroll int
	Pace             time.Duration
	// Seed fixes the shoe order; zero means a fresh random seed.
	Seed int64
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string
	Port     int
	LogLevel string
}

// StoreSettings selects where snapshots are kept
type StoreSettings struct {
	Driver string
	Dir    string
	DSN    string
	DSNEnv string
}

// file mirrors the HCL layout. Pointers distinguish "absent" from zero.
type file struct {
	Rules   *rulesBlock   `hcl:"rules,block"`
	Session *sessionBlock `hcl:"session,block"`
	Server  *serverBlock  `hcl:"server,block"`
	Store   *storeBlock   `hcl:"store,block"`
}

type rulesBlock struct {
	HouseEdge       *float64 `hcl:"house_edge,optional"`
	BlackjackPayout *float64 `hcl:"blackjack_payout,optional"`
	WinPayout       *float64 `hcl:"win_payout,optional"`
	DealerStandsOn  *int     `hcl:"dealer_stands_on,optional"`
	AutoStandOn21   *bool    `hcl:"auto_stand_on_21,optional"`
	HistoryLimit    *int     `hcl:"history_limit,optional"`
}

type sessionBlock struct {
	StartingBankroll *int    `hcl:"starting_bankroll,optional"`
	Pace             *string `hcl:"pace,optional"`
	Seed             *int64  `hcl:"seed,optional"`
}

type serverBlock struct {
	Address  *string `hcl:"address,optional"`
	Port     *int    `hcl:"port,optional"`
	LogLevel *string `hcl:"log_level,optional"`
}

type storeBlock struct {
	Driver *string `hcl:"driver,optional"`
	Dir    *string `hcl:"dir,optional"`
	DSN    *string `hcl:"dsn,optional"`
	DSNEnv *string `hcl:"dsn_env,optional"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Rules: game.DefaultRules(),
		Session: SessionSettings{
			StartingBankroll: 1000,
			Pace:             750 * time.Millisecond,
		},
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Store: StoreSettings{
			Driver: StoreFile,
			Dir:    "sessions",
			DSNEnv: "DATABASE_URL",
		},
	}
}

// Load reads filename over the defaults. A missing file yields the defaults.
// An empty store DSN is read from the environment variable named by dsn_env.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			if err := cfg.decode(filename); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	if cfg.Store.DSN == "" && cfg.Store.DSNEnv != "" {
		cfg.Store.DSN = os.Getenv(cfg.Store.DSNEnv)
	}
	return cfg, nil
}

func (c *Config) decode(filename string) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var f file
	diags = gohcl.DecodeBody(hclFile.Body, nil, &f)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if r := f.Rules; r != nil {
		set(&c.Rules.HouseEdge, r.HouseEdge)
		set(&c.Rules.BlackjackPayout, r.BlackjackPayout)
		set(&c.Rules.WinPayout, r.WinPayout)
		set(&c.Rules.DealerStandsOn, r.DealerStandsOn)
		set(&c.Rules.AutoStandOn21, r.AutoStandOn21)
		set(&c.Rules.HistoryLimit, r.HistoryLimit)
	}
	if s := f.Session; s != nil {
		set(&c.Session.StartingBankroll, s.StartingBankroll)
		set(&c.Session.Seed, s.Seed)
		if s.Pace != nil {
			pace, err := time.ParseDuration(*s.Pace)
			if err != nil {
				return fmt.Errorf("invalid session pace %q: %w", *s.Pace, err)
			}
			c.Session.Pace = pace
		}
	}
	if s := f.Server; s != nil {
		set(&c.Server.Address, s.Address)
		set(&c.Server.Port, s.Port)
		set(&c.Server.LogLevel, s.LogLevel)
	}
	if s := f.Store; s != nil {
		set(&c.Store.Driver, s.Driver)
		set(&c.Store.Dir, s.Dir)
		set(&c.Store.DSN, s.DSN)
		set(&c.Store.DSNEnv, s.DSNEnv)
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if c.Session.StartingBankroll <= 0 {
		return fmt.Errorf("session: starting bankroll must be positive, got %d", c.Session.StartingBankroll)
	}
	if c.Session.Pace < 0 {
		return fmt.Errorf("session: pace cannot be negative, got %s", c.Session.Pace)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreFile:
		if c.Store.Dir == "" {
			return fmt.Errorf("store: file driver needs a dir")
		}
	case StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store: postgres driver needs a dsn (or $%s)", c.Store.DSNEnv)
		}
	default:
		return fmt.Errorf("store: unknown driver %q", c.Store.Driver)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
