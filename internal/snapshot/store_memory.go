package snapshot

import (
	"context"
	"sync"

	pkgerrors "niis/pkg/errors"
)

// InMemory keeps the latest snapshot for serving. Safe for concurrent reads
// while a refresh swaps in a new run.
type InMemory struct {
	mu     sync.RWMutex
	latest *Snapshot
}

// NewInMemory returns an empty store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Put replaces the served snapshot.
func (s *InMemory) Put(_ context.Context, snap *Snapshot) error {
	if snap == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "nil snapshot")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = snap
	return nil
}

// Latest returns the current snapshot, or a not-found error before the first
// batch has completed.
func (s *InMemory) Latest(_ context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no batch has completed yet")
	}
	return s.latest, nil
}
