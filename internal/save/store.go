// Package save persists opaque game snapshots keyed by player id.
package save

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// RecordKey names the per-player record a snapshot is stored under.
const RecordKey = "gigaCodeClicker"

const defaultPlayerID = "default"

var ErrPersistenceWriteFailed = errors.New("persistence write failed")

// Store loads and saves snapshot blobs. Load reports found=false for a
// player that has never been saved.
type Store interface {
	Load(ctx context.Context, playerID string) (blob []byte, found bool, err error)
	Save(ctx context.Context, playerID string, blob []byte) error
	Delete(ctx context.Context, playerID string) error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open builds the store named by backend rooted at dataDir. The returned
// close func is never nil.
func Open(backend, dataDir string) (Store, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory:
		return NewMemoryStore(), noop, nil
	case "", BackendFile:
		fs, err := NewFileStore(dataDir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil
	case BackendSQLite:
		db, err := OpenSQLiteStore(filepath.Join(dataDir, "saves.db"))
		if err != nil {
			return nil, noop, err
		}
		return db, db.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", backend)
	}
}

func normalizePlayerID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return defaultPlayerID
	}
	return id
}

func writeFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistenceWriteFailed, op, err)
}

// ListPlayers returns the ids with a stored save. Only the persistent
// backends can enumerate their records.
func ListPlayers(ctx context.Context, st Store) ([]string, error) {
	switch s := st.(type) {
	case *FileStore:
		ids := s.PlayerIDs()
		sort.Strings(ids)
		return ids, nil
	case *SQLiteStore:
		return s.PlayerIDs(ctx)
	default:
		return nil, fmt.Errorf("%T cannot list players", st)
	}
}
