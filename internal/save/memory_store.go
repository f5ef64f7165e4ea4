package save

import (
	"context"
	"sync"
)

// MemoryStore keeps snapshots in memory (dev/test use).
type MemoryStore struct {
	mu    sync.RWMutex
	saves map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{saves: map[string][]byte{}}
}

func (s *MemoryStore) Load(ctx context.Context, playerID string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.saves[normalizePlayerID(playerID)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *MemoryStore) Save(ctx context.Context, playerID string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return writeFailed("save", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves[normalizePlayerID(playerID)] = append([]byte(nil), blob...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, playerID string) error {
	if err := ctx.Err(); err != nil {
		return writeFailed("delete", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.saves, normalizePlayerID(playerID))
	return nil
}
