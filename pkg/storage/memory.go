package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/raterudder/energysim/pkg/types"
)

// Memory keeps runs in process memory. It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	runs   map[string]types.Run
	states map[string][]types.SystemState
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{
		runs:   make(map[string]types.Run),
		states: make(map[string][]types.SystemState),
	}
}

// SaveRun implements Database.
func (m *Memory) SaveRun(ctx context.Context, run types.Run, states []types.SystemState) error {
	if run.ID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	m.states[run.ID] = slices.Clone(states)
	return nil
}

// GetRun implements Database.
func (m *Memory) GetRun(ctx context.Context, runID string) (types.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[runID]
	if !ok {
		return types.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// ListRuns implements Database.
func (m *Memory) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	m.mu.RLock()
	runs := make([]types.Run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	m.mu.RUnlock()

	slices.SortFunc(runs, func(a, b types.Run) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetRunStates implements Database.
func (m *Memory) GetRunStates(ctx context.Context, runID string, from, to int) ([]types.SystemState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	states, ok := m.states[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	var out []types.SystemState
	for _, s := range states {
		if s.Timestep >= from && s.Timestep < to {
			out = append(out, s)
		}
	}
	return out, nil
}

// Close implements Database.
func (m *Memory) Close() error {
	return nil
}

var _ Database = (*Memory)(nil)
