package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/lox/blackjack/internal/fileutil"
)

// FileStore keeps one JSON file per player in a directory. Writes go through
// a temporary file and rename so a crash never leaves a partial snapshot.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file a player's snapshot is stored in. Names are
// path-escaped, so distinct players never share a file and separators
// cannot leave the directory.
func (f *FileStore) Path(player string) string {
	return filepath.Join(f.dir, url.PathEscape(player)+".json")
}

// Load reads a player's snapshot
func (f *FileStore) Load(_ context.Context, player string) (*Snapshot, error) {
	var snap Snapshot
	err := fileutil.ReadJSON(f.Path(player), &snap)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap.Player != player {
		return nil, fmt.Errorf("snapshot %s belongs to %q, not %q", f.Path(player), snap.Player, player)
	}
	return &snap, nil
}

// Save writes a player's snapshot atomically
func (f *FileStore) Save(_ context.Context, snap *Snapshot) error {
	if err := fileutil.WriteJSON(f.Path(snap.Player), snap, 0o644); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Close is a no-op
func (f *FileStore) Close() error { return nil }
