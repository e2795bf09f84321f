package memory

import (
	"context"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// Store implements ports.SnapshotStore in memory. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]domain.Snapshot
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string]domain.Snapshot)}
}

// Save persists the snapshot in memory. Snapshots are stored by value so
// callers cannot mutate stored state through the pointer afterwards.
func (s *Store) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = *snap
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	ret := snap
	return &ret, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}
