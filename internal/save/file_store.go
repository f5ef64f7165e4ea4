package save

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps every player's snapshot in a single JSON document,
// rewritten on each save.
type FileStore struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

type fileState struct {
	Players map[string]playerRecords `json:"players"`
}

// playerRecords maps a record key to its stored snapshot.
type playerRecords map[string]record

type record struct {
	Data      string    `json:"data"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	fs := &FileStore{
		path: filepath.Join(dataDir, "saves.json"),
		s:    fileState{Players: map[string]playerRecords{}},
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Path is the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.s = fileState{Players: map[string]playerRecords{}}
			return nil
		}
		return err
	}

	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return err
	}
	if loaded.Players == nil {
		loaded.Players = map[string]playerRecords{}
	}
	s.s = loaded
	return nil
}

func (s *FileStore) saveLocked() error {
	b, err := json.MarshalIndent(s.s, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Load(ctx context.Context, playerID string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.s.Players[normalizePlayerID(playerID)][RecordKey]
	if !ok {
		return nil, false, nil
	}
	return []byte(rec.Data), true, nil
}

func (s *FileStore) Save(ctx context.Context, playerID string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return writeFailed("save", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := normalizePlayerID(playerID)
	prev, hadPlayer := s.s.Players[id]
	prevRec, hadRec := prev[RecordKey]

	recs := prev
	if recs == nil {
		recs = playerRecords{}
	}
	recs[RecordKey] = record{Data: string(blob), UpdatedAt: time.Now().UTC()}
	s.s.Players[id] = recs

	if err := s.saveLocked(); err != nil {
		// keep memory consistent with disk
		switch {
		case !hadPlayer:
			delete(s.s.Players, id)
		case hadRec:
			recs[RecordKey] = prevRec
		default:
			delete(recs, RecordKey)
		}
		return writeFailed("save", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, playerID string) error {
	if err := ctx.Err(); err != nil {
		return writeFailed("delete", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := normalizePlayerID(playerID)
	prev, ok := s.s.Players[id]
	if !ok {
		return nil
	}
	delete(s.s.Players, id)
	if err := s.saveLocked(); err != nil {
		s.s.Players[id] = prev
		return writeFailed("delete", err)
	}
	return nil
}

// PlayerIDs lists every player with a stored snapshot.
func (s *FileStore) PlayerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.s.Players))
	for id, recs := range s.s.Players {
		if _, ok := recs[RecordKey]; ok {
			out = append(out, id)
		}
	}
	return out
}
