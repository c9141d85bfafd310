package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/energysim/pkg/types"
)

var (
	ErrRunNotFound = errors.New("run not found")
)

// Database persists simulation runs and their per-timestep states.
type Database interface {
	// SaveRun stores run and its states, replacing any run with the same ID.
	SaveRun(ctx context.Context, run types.Run, states []types.SystemState) error
	// GetRun returns the run or an error wrapping ErrRunNotFound.
	GetRun(ctx context.Context, runID string) (types.Run, error)
	// ListRuns returns up to limit runs, newest first. A limit <= 0 returns
	// every run.
	ListRuns(ctx context.Context, limit int) ([]types.Run, error)
	// GetRunStates returns the states with from <= Timestep < to in order.
	GetRunStates(ctx context.Context, runID string, from, to int) ([]types.SystemState, error)

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "none", "Storage provider to use (available: firestore, memory, none)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		case "memory":
			p.Database = NewMemory()
		case "none":
			p.Database = Discard{}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}

// Discard drops every run it is given.
type Discard struct{}

func (Discard) SaveRun(ctx context.Context, run types.Run, states []types.SystemState) error {
	return nil
}

func (Discard) GetRun(ctx context.Context, runID string) (types.Run, error) {
	return types.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
}

func (Discard) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	return nil, nil
}

func (Discard) GetRunStates(ctx context.Context, runID string, from, to int) ([]types.SystemState, error) {
	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
}

func (Discard) Close() error {
	return nil
}

var _ Database = Discard{}
