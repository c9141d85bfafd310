package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/raterudder/energysim/pkg/log"
	"github.com/raterudder/energysim/pkg/types"
)

// FirestoreProvider implements the Database interface using Google Cloud Firestore.
// Runs live in the "runs" collection and each run's states in its "states"
// subcollection, both as JSON blobs.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// an empty project ID is detected from the environment
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) runDoc(runID string) (*firestore.DocumentRef, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	return f.client.Collection("runs").Doc(runID), nil
}

// stateDocID zero-pads the timestep so document IDs sort numerically.
func stateDocID(timestep int) string {
	return fmt.Sprintf("%06d", timestep)
}

// SaveRun writes the run document and then every state through a
// BulkWriter. The run document carries createdAt for ListRuns ordering.
func (f *FirestoreProvider) SaveRun(ctx context.Context, run types.Run, states []types.SystemState) error {
	ref, err := f.runDoc(run.ID)
	if err != nil {
		return err
	}
	runJSON, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}
	_, err = ref.Set(ctx, map[string]interface{}{
		"json":      string(runJSON),
		"version":   run.Version,
		"createdAt": run.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	bw := f.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(states))
	for _, s := range states {
		stateJSON, err := json.Marshal(s)
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to marshal state %d of run %s: %w", s.Timestep, run.ID, err)
		}
		job, err := bw.Set(ref.Collection("states").Doc(stateDocID(s.Timestep)), map[string]interface{}{
			"json":     string(stateJSON),
			"timestep": s.Timestep,
		})
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue state %d of run %s: %w", s.Timestep, run.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("failed to save state %d of run %s: %w", states[i].Timestep, run.ID, err)
		}
	}
	log.Ctx(ctx).DebugContext(ctx, "saved run to firestore", slog.String("runID", run.ID), slog.Int("states", len(states)))
	return nil
}

func decodeRun(ctx context.Context, doc *firestore.DocumentSnapshot) (types.Run, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "run doc missing json", slog.String("runID", doc.Ref.ID), slog.Any("err", err))
		return types.Run{}, fmt.Errorf("run %s missing json: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "run doc json not string", slog.String("runID", doc.Ref.ID))
		return types.Run{}, fmt.Errorf("run %s json not string", doc.Ref.ID)
	}
	var run types.Run
	if err := json.Unmarshal([]byte(jsonStr), &run); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal run", slog.String("runID", doc.Ref.ID), slog.Any("err", err))
		return types.Run{}, fmt.Errorf("failed to unmarshal run %s: %w", doc.Ref.ID, err)
	}
	return run, nil
}

// GetRun retrieves a run from the "runs" collection.
func (f *FirestoreProvider) GetRun(ctx context.Context, runID string) (types.Run, error) {
	ref, err := f.runDoc(runID)
	if err != nil {
		return types.Run{}, err
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return types.Run{}, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return decodeRun(ctx, doc)
}

// ListRuns retrieves the newest runs. Malformed documents are skipped.
func (f *FirestoreProvider) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	q := f.client.Collection("runs").OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var runs []types.Run
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating runs: %w", err)
		}
		run, err := decodeRun(ctx, doc)
		if err != nil {
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// GetRunStates retrieves states using document ID range queries so only the
// requested timesteps are read.
func (f *FirestoreProvider) GetRunStates(ctx context.Context, runID string, from, to int) ([]types.SystemState, error) {
	ref, err := f.runDoc(runID)
	if err != nil {
		return nil, err
	}
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	if from < 0 {
		from = 0
	}
	if to <= from {
		return nil, nil
	}

	coll := ref.Collection("states")
	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(stateDocID(from))).
		Where(firestore.DocumentID, "<", coll.Doc(stateDocID(to))).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var states []types.SystemState
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating states: %w", err)
		}

		val, err := doc.DataAt("json")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "state doc missing json", slog.String("stateID", doc.Ref.ID), slog.String("runID", runID), slog.Any("err", err))
			return nil, fmt.Errorf("state document %s missing 'json' field: %w", doc.Ref.ID, err)
		}
		jsonStr, ok := val.(string)
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "state doc json not string", slog.String("stateID", doc.Ref.ID), slog.String("runID", runID))
			return nil, fmt.Errorf("state document %s 'json' field is not string", doc.Ref.ID)
		}
		var s types.SystemState
		if err := json.Unmarshal([]byte(jsonStr), &s); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal state", slog.String("stateID", doc.Ref.ID), slog.String("runID", runID), slog.Any("err", err))
			return nil, fmt.Errorf("failed to unmarshal state (id=%s): %w", doc.Ref.ID, err)
		}
		states = append(states, s)
	}
	return states, nil
}

var _ Database = (*FirestoreProvider)(nil)
