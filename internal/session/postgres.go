package session

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// PostgresStore keeps one JSONB row per player.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Load reads a player's snapshot
func (p *PostgresStore) Load(ctx context.Context, player string) (*Snapshot, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT snapshot FROM blackjack_sessions WHERE player = $1`, player).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot for %s: %w", player, err)
	}
	return &snap, nil
}

// Save upserts a player's snapshot
func (p *PostgresStore) Save(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
        INSERT INTO blackjack_sessions(player, bankroll, snapshot, saved_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (player) DO UPDATE
          SET bankroll = EXCLUDED.bankroll,
              snapshot = EXCLUDED.snapshot,
              saved_at = EXCLUDED.saved_at
    `, snap.Player, snap.Bankroll, raw, snap.SavedAt)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
