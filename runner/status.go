package runner

import (
	"sync"

	"ringba-rpc-monitor/models"
)

// Status is the single-slot "last run result" cache shared by the
// orchestrator and the HTTP handlers. Explicitly owned and mutex-guarded,
// passed in at construction time.
type Status struct {
	mu   sync.RWMutex
	last *models.RunStatus
}

func NewStatus() *Status {
	return &Status{}
}

func (s *Status) Set(st models.RunStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &st
}

// Get returns the last run result, ok=false if no run has completed yet.
func (s *Status) Get() (models.RunStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return models.RunStatus{}, false
	}
	return *s.last, true
}
