package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/ovation22/TripleDerby-sub000/internal/sim"
	"github.com/ovation22/TripleDerby-sub000/pkg/metrics"
)

// MemoryStore implements Store with a mutex-guarded map. Results are
// written once per race and read many times, so a plain RWMutex is enough.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*sim.Result
}

// NewMemoryStore creates an empty in-memory result store.
func NewMemoryStore(_ context.Context) *MemoryStore {
	return &MemoryStore{
		results: make(map[string]*sim.Result),
	}
}

// Put stores a finished race result.
func (s *MemoryStore) Put(ctx context.Context, res *sim.Result) error {
	if res == nil {
		return ErrNilResult
	}
	if res.RaceID == "" {
		return fmt.Errorf("%w: missing race id", ErrNilResult)
	}

	s.mu.Lock()
	s.results[res.RaceID] = res
	size := len(s.results)
	s.mu.Unlock()

	metrics.UpdateResultsStored(size)
	return nil
}

// Get returns the result for a race ID.
func (s *MemoryStore) Get(ctx context.Context, raceID string) (*sim.Result, error) {
	s.mu.RLock()
	res, ok := s.results[raceID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, raceID)
	}
	return res, nil
}

// Count returns the number of stored results.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
