package storage

import (
	"context"
	"sync"

	"ringba-rpc-monitor/models"
)

// MemoryStore is an in-process SnapshotStore, used in tests and when no
// DATABASE_URL is configured (comparisons then only work within one process
// lifetime).
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string]models.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]models.Snapshot)}
}

func (s *MemoryStore) Put(_ context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[snap.TimeSlot] = snap
	return nil
}

func (s *MemoryStore) Get(_ context.Context, timeSlot string) (models.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.slots[timeSlot]
	return snap, ok, nil
}

func (s *MemoryStore) Close() error { return nil }
