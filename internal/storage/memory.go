package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/cablesim/internal/sim"
)

// MemoryStore keeps runs in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string]RunMetadata
	traces map[string]*Traces
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:   make(map[string]RunMetadata),
		traces: make(map[string]*Traces),
	}
}

func (s *MemoryStore) Init(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                   { return nil }

func (s *MemoryStore) Save(ctx context.Context, meta RunMetadata, result *sim.Result) (string, error) {
	meta = prepare(meta)
	traces := tracesOf(result)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[meta.ID] = meta
	s.traces[meta.ID] = traces
	return meta.ID, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]RunMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]RunMetadata, 0, len(s.runs))
	for _, meta := range s.runs {
		runs = append(runs, meta)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) Load(ctx context.Context, runID string) (*RunMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return &meta, nil
}

func (s *MemoryStore) LoadTraces(ctx context.Context, runID string) (*Traces, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	traces, ok := s.traces[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return traces, nil
}
