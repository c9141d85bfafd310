package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/energysim/pkg/types"
)

func testStates(n int) []types.SystemState {
	states := make([]types.SystemState, n)
	for i := range states {
		states[i] = types.SystemState{Timestep: i + 1, SOC: 0.5, LoadKW: float64(i)}
	}
	return states
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	older := types.Run{ID: "a", Version: types.CurrentRunVersion, CreatedAt: now.Add(-time.Hour), Steps: 5}
	newer := types.Run{ID: "b", Version: types.CurrentRunVersion, CreatedAt: now, Steps: 3}

	require.NoError(t, m.SaveRun(ctx, older, testStates(5)))
	require.NoError(t, m.SaveRun(ctx, newer, testStates(3)))

	t.Run("GetRun", func(t *testing.T) {
		got, err := m.GetRun(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, older, got)

		_, err = m.GetRun(ctx, "missing")
		assert.ErrorIs(t, err, ErrRunNotFound)
	})

	t.Run("ListRuns", func(t *testing.T) {
		runs, err := m.ListRuns(ctx, 0)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "b", runs[0].ID)
		assert.Equal(t, "a", runs[1].ID)

		runs, err = m.ListRuns(ctx, 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "b", runs[0].ID)
	})

	t.Run("GetRunStates", func(t *testing.T) {
		states, err := m.GetRunStates(ctx, "a", 2, 4)
		require.NoError(t, err)
		require.Len(t, states, 2)
		assert.Equal(t, 2, states[0].Timestep)
		assert.Equal(t, 3, states[1].Timestep)

		_, err = m.GetRunStates(ctx, "missing", 0, 10)
		assert.ErrorIs(t, err, ErrRunNotFound)
	})

	t.Run("Replace", func(t *testing.T) {
		replaced := newer
		replaced.Steps = 1
		require.NoError(t, m.SaveRun(ctx, replaced, testStates(1)))
		states, err := m.GetRunStates(ctx, "b", 0, 100)
		require.NoError(t, err)
		assert.Len(t, states, 1)
	})

	t.Run("Empty ID", func(t *testing.T) {
		assert.ErrorContains(t, m.SaveRun(ctx, types.Run{}, nil), "runID cannot be empty")
	})
}

func TestDiscard(t *testing.T) {
	ctx := context.Background()
	var d Discard
	require.NoError(t, d.SaveRun(ctx, types.Run{ID: "x"}, testStates(2)))
	_, err := d.GetRun(ctx, "x")
	assert.ErrorIs(t, err, ErrRunNotFound)
	runs, err := d.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
