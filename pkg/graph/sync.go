package graph

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

// DiagramProjector projects a single diagram into the graph.
type DiagramProjector interface {
	ProjectDiagram(ctx context.Context, diagramID string) (common.Projection, error)
}

// Progress is a snapshot of a running synchronisation.
type Progress struct {
	RunID     string
	Done      int64
	Failed    int64
	Total     int64
	Elapsed   time.Duration
	Completed bool
}

// ProgressFunc receives progress snapshots. It is never called concurrently.
type ProgressFunc func(Progress)

// SyncReport summarises a finished synchronisation run.
type SyncReport struct {
	RunID       string        `json:"run_id"`
	Processed   int64         `json:"processed"`
	Failed      int64         `json:"failed"`
	Connections int64         `json:"connections"`
	Fallbacks   int64         `json:"fallbacks"`
	Duration    time.Duration `json:"duration"`
}

// Synchronizer drives a projector over a stream of diagram ids.
//
// A Synchronizer should be created using NewSynchronizer.
type Synchronizer struct {
	projector     DiagramProjector
	parallel      int
	progressEvery int64
}

// NewSynchronizerParams defines the configuration of a Synchronizer.
//
// Parallel bounds how many diagrams are projected at once and defaults to 1.
// ProgressEvery sets how many finished diagrams trigger a progress callback
// and defaults to 100.
type NewSynchronizerParams struct {
	Projector     DiagramProjector
	Parallel      int
	ProgressEvery int
}

// NewSynchronizer creates a Synchronizer from params.
func NewSynchronizer(params NewSynchronizerParams) (*Synchronizer, error) {
	if params.Projector == nil {
		return nil, fmt.Errorf("projector is required")
	}
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = 1
	}
	every := params.ProgressEvery
	if every <= 0 {
		every = 100
	}
	return &Synchronizer{
		projector:     params.Projector,
		parallel:      parallel,
		progressEvery: int64(every),
	}, nil
}

// Run projects every diagram yielded by ids. total is only used for progress
// reporting and may be zero when unknown.
//
// A diagram that fails to project is logged and counted; the run continues.
// Run returns an error only when the id stream itself fails or ctx is
// cancelled, together with the report of what was done so far.
func (s *Synchronizer) Run(
	ctx context.Context,
	ids iter.Seq2[string, error],
	total int64,
	progress ProgressFunc,
) (SyncReport, error) {
	runID, err := NewRunID()
	if err != nil {
		return SyncReport{}, err
	}
	return s.RunWithID(ctx, runID, ids, total, progress)
}

// NewRunID returns a fresh synchronisation run id.
func NewRunID() (string, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate run id: %w", err)
	}
	return runID, nil
}

// RunWithID is Run with a caller chosen run id, for callers that record the
// id elsewhere before the run starts.
func (s *Synchronizer) RunWithID(
	ctx context.Context,
	runID string,
	ids iter.Seq2[string, error],
	total int64,
	progress ProgressFunc,
) (SyncReport, error) {
	start := time.Now()
	report := SyncReport{RunID: runID}
	mu := sync.Mutex{}

	snapshot := func(completed bool) Progress {
		return Progress{
			RunID:     runID,
			Done:      report.Processed + report.Failed,
			Failed:    report.Failed,
			Total:     total,
			Elapsed:   time.Since(start),
			Completed: completed,
		}
	}

	logger.Info("[Sync] Starting graph synchronisation", "run_id", runID, "total", total, "parallel", s.parallel)

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.parallel)

	var iterErr error
	for id, err := range ids {
		if err != nil {
			iterErr = fmt.Errorf("failed to list diagrams: %w", err)
			break
		}
		if gCtx.Err() != nil {
			break
		}

		diagramID := id
		eg.Go(func() error {
			projection, err := s.projector.ProjectDiagram(gCtx, diagramID)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				report.Failed++
				logger.Error("[Sync] Failed to project diagram", "run_id", runID, "diagram_id", diagramID, "err", err)
			} else {
				report.Processed++
				report.Connections += int64(len(projection.Connections))
				if projection.Fallback {
					report.Fallbacks++
				}
			}

			done := report.Processed + report.Failed
			if progress != nil && done%s.progressEvery == 0 {
				progress(snapshot(false))
			}
			return nil
		})
	}

	_ = eg.Wait()

	report.Duration = time.Since(start)
	if progress != nil {
		progress(snapshot(true))
	}

	if iterErr == nil {
		iterErr = ctx.Err()
	}
	if iterErr != nil {
		logger.Error("[Sync] Graph synchronisation aborted", "run_id", runID, "err", iterErr)
		return report, iterErr
	}

	logger.Info(
		"[Sync] Graph synchronisation completed",
		"run_id", runID,
		"processed", report.Processed,
		"failed", report.Failed,
		"connections", report.Connections,
		"fallbacks", report.Fallbacks,
		"duration", report.Duration,
	)
	return report, nil
}
