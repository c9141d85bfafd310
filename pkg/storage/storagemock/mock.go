package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/raterudder/energysim/pkg/storage"
	"github.com/raterudder/energysim/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) SaveRun(ctx context.Context, run types.Run, states []types.SystemState) error {
	args := m.Called(ctx, run, states)
	return args.Error(0)
}

func (m *MockDatabase) GetRun(ctx context.Context, runID string) (types.Run, error) {
	args := m.Called(ctx, runID)
	if len(args) > 0 {
		return args.Get(0).(types.Run), args.Error(1)
	}
	return types.Run{}, nil
}

func (m *MockDatabase) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Run), args.Error(1)
}

func (m *MockDatabase) GetRunStates(ctx context.Context, runID string, from, to int) ([]types.SystemState, error) {
	args := m.Called(ctx, runID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.SystemState), args.Error(1)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
