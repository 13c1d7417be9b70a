package graph

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"testing"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idsOf(ids ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
	}
}

type scriptedProjector struct {
	mu   sync.Mutex
	fail map[string]bool
	seen []string
}

func (s *scriptedProjector) ProjectDiagram(ctx context.Context, id string) (common.Projection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, id)
	if s.fail[id] {
		return common.Projection{}, fmt.Errorf("store unavailable for %s", id)
	}
	if id == "fallback" {
		return common.Projection{DiagramID: id, Fallback: true}, nil
	}
	return common.Projection{
		DiagramID:   id,
		Connections: []common.Connection{{Origin: "A", Target: "B", Relation: "r"}},
	}, nil
}

func TestSynchronizerContinuesAfterFailures(t *testing.T) {
	proj := &scriptedProjector{fail: map[string]bool{"bad1": true, "bad2": true}}
	s, err := NewSynchronizer(NewSynchronizerParams{Projector: proj, Parallel: 3, ProgressEvery: 2})
	require.NoError(t, err)

	var updates []Progress
	report, err := s.Run(context.Background(), idsOf("a", "bad1", "b", "fallback", "bad2", "c"), 6, func(p Progress) {
		updates = append(updates, p)
	})
	require.NoError(t, err)

	assert.Len(t, proj.seen, 6)
	assert.Equal(t, int64(4), report.Processed)
	assert.Equal(t, int64(2), report.Failed)
	assert.Equal(t, int64(3), report.Connections)
	assert.Equal(t, int64(1), report.Fallbacks)
	assert.NotEmpty(t, report.RunID)

	// every second diagram plus the final snapshot
	require.Len(t, updates, 4)
	last := updates[len(updates)-1]
	assert.True(t, last.Completed)
	assert.Equal(t, int64(6), last.Done)
	assert.Equal(t, int64(2), last.Failed)
	assert.Equal(t, int64(6), last.Total)
	for _, u := range updates[:3] {
		assert.False(t, u.Completed)
		assert.Equal(t, report.RunID, u.RunID)
	}
}

func TestSynchronizerStopsOnIteratorError(t *testing.T) {
	proj := &scriptedProjector{}
	s, err := NewSynchronizer(NewSynchronizerParams{Projector: proj})
	require.NoError(t, err)

	boom := errors.New("cursor closed")
	ids := func(yield func(string, error) bool) {
		if !yield("a", nil) {
			return
		}
		yield("", boom)
	}

	report, err := s.Run(context.Background(), ids, 0, nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), report.Processed)
}

func TestSynchronizerWithMemoryStores(t *testing.T) {
	docs := memory.NewDocumentStore(
		lifeCycleDoc(),
		&common.Document{ID: "D2", Text: common.Entries[common.TextEntity]{textEntry("T1", "Frog")}},
	)
	g := memory.NewGraphStore()
	p, err := NewProjector(NewProjectorParams{Documents: docs, Graph: g})
	require.NoError(t, err)
	s, err := NewSynchronizer(NewSynchronizerParams{Projector: p, Parallel: 2})
	require.NoError(t, err)

	ctx := context.Background()
	total, err := docs.CountDocuments(ctx)
	require.NoError(t, err)

	report, err := s.Run(ctx, docs.DiagramIDs(ctx), total, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Processed)
	assert.Equal(t, int64(1), report.Fallbacks)
	assert.Equal(t, []string{"Frog"}, g.Contains("D2"))
}

func TestSynchronizerRunWithID(t *testing.T) {
	s, err := NewSynchronizer(NewSynchronizerParams{Projector: &scriptedProjector{}})
	require.NoError(t, err)

	var seen []string
	report, err := s.RunWithID(context.Background(), "run-7", idsOf(), 0, func(p Progress) {
		seen = append(seen, p.RunID)
	})
	require.NoError(t, err)
	assert.Equal(t, "run-7", report.RunID)
	assert.Equal(t, []string{"run-7"}, seen)
}

func TestSynchronizerCancelled(t *testing.T) {
	s, err := NewSynchronizer(NewSynchronizerParams{Projector: &scriptedProjector{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Run(ctx, idsOf("a", "b"), 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
