package corpus

import (
	"context"
	"testing"
	"time"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/graph"
	"github.com/OFFIS-RIT/diagramkg/pkg/leaselock"
	"github.com/OFFIS-RIT/diagramkg/pkg/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocker struct {
	keys   []string
	owners []string
	busy   *leaselock.Holder
}

func (f *fakeLocker) WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error {
	if f.busy != nil {
		return &leaselock.BusyError{Key: key, Holder: f.busy}
	}
	f.keys = append(f.keys, key)
	f.owners = append(f.owners, opts.Owner)
	return fn(ctx)
}

func (f *fakeLocker) Holder(ctx context.Context, key string) (*leaselock.Holder, error) {
	return f.busy, nil
}

func newRunner(t *testing.T, locker Locker) (*Runner, *memory.GraphStore) {
	t.Helper()

	doc := &common.Document{ID: "D1", Text: common.Entries[common.TextEntity]{}}
	doc.Text.Set("T1", common.TextEntity{ID: "T1", Value: "Sun"})
	doc.Text.Set("T2", common.TextEntity{ID: "T2", Value: "Plant"})
	doc.Relationships.Set("R1", common.Relationship{ID: "R1", Category: common.CategoryInterObject, Origin: "T1", Target: "T2"})

	docs := memory.NewDocumentStore(doc, &common.Document{ID: "D2"})
	g := memory.NewGraphStore()

	projector, err := graph.NewProjector(graph.NewProjectorParams{Documents: docs, Graph: g})
	require.NoError(t, err)
	syncer, err := graph.NewSynchronizer(graph.NewSynchronizerParams{Projector: projector, Parallel: 2})
	require.NoError(t, err)

	r, err := NewRunner(NewRunnerParams{Lister: docs, Synchronizer: syncer, Locker: locker})
	require.NoError(t, err)
	return r, g
}

func TestRunHoldsLease(t *testing.T) {
	locker := &fakeLocker{}
	r, g := newRunner(t, locker)

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{LockKey}, locker.keys)
	require.Len(t, locker.owners, 1)
	assert.Equal(t, report.RunID, RunIDFromOwner(locker.owners[0]))
	assert.Equal(t, int64(2), report.Processed)
	assert.Equal(t, int64(1), report.Connections)
	assert.Equal(t, []memory.Edge{{Origin: "Sun", Target: "Plant", Relation: common.DefaultRelation}}, g.Edges())
}

func TestRunBusy(t *testing.T) {
	holder := &leaselock.Holder{Key: LockKey, Owner: "worker-1/abc", ExpiresAt: time.Now().Add(time.Minute)}
	r, g := newRunner(t, &fakeLocker{busy: holder})

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, leaselock.ErrBusy)
	assert.Contains(t, err.Error(), "worker-1/abc")
	assert.Empty(t, g.Edges())

	got, err := r.Holder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, holder, got)
}

func TestOwnerRoundTrip(t *testing.T) {
	assert.Equal(t, "run42", RunIDFromOwner(Owner("run42")))
	assert.Equal(t, "plain", RunIDFromOwner("plain"))
}

func TestRunWithoutLocker(t *testing.T) {
	r, _ := newRunner(t, nil)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Processed)

	holder, err := r.Holder(context.Background())
	require.NoError(t, err)
	assert.Nil(t, holder)
}

func TestLogProgressWithoutLogger(t *testing.T) {
	LogProgress(graph.Progress{RunID: "r", Done: 5, Total: 10})
	LogProgress(graph.Progress{RunID: "r", Done: 10, Total: 10, Completed: true})
}
