// Package corpus runs full graph synchronisations over every stored
// diagram, one run at a time across the cluster.
package corpus

import (
	"context"
	"fmt"
	"iter"
	"os"
	"strings"
	"time"

	"github.com/OFFIS-RIT/diagramkg/internal/util"
	"github.com/OFFIS-RIT/diagramkg/pkg/graph"
	"github.com/OFFIS-RIT/diagramkg/pkg/leaselock"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger"
)

// LockKey is the lease key guarding corpus synchronisation.
const LockKey = "graph-sync"

// DiagramLister enumerates the diagrams to synchronise.
type DiagramLister interface {
	DiagramIDs(ctx context.Context) iter.Seq2[string, error]
	CountDocuments(ctx context.Context) (int64, error)
}

// Locker runs fn while holding a cluster-wide lease on key and reports who
// holds a key.
type Locker interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
	Holder(ctx context.Context, key string) (*leaselock.Holder, error)
}

type Runner struct {
	lister DiagramLister
	sync   *graph.Synchronizer
	locker Locker
	ttl    time.Duration
}

// NewRunnerParams configures a Runner. Without a Locker runs are not guarded,
// which is only meant for single process use such as dry runs.
type NewRunnerParams struct {
	Lister       DiagramLister
	Synchronizer *graph.Synchronizer
	Locker       Locker
	LeaseTTL     time.Duration
}

func NewRunner(params NewRunnerParams) (*Runner, error) {
	if params.Lister == nil || params.Synchronizer == nil {
		return nil, fmt.Errorf("lister and synchronizer are required")
	}
	ttl := params.LeaseTTL
	if ttl <= 0 {
		ttl = leaselock.DefaultTTL
	}
	return &Runner{
		lister: params.Lister,
		sync:   params.Synchronizer,
		locker: params.Locker,
		ttl:    ttl,
	}, nil
}

// Run synchronises the whole corpus. The lease owner is "<host>/<run id>" so
// a busy error and Holder name the run in progress. It fails with an error
// matching leaselock.ErrBusy when another run holds the lease.
func (r *Runner) Run(ctx context.Context) (graph.SyncReport, error) {
	runID, err := graph.NewRunID()
	if err != nil {
		return graph.SyncReport{}, err
	}

	var report graph.SyncReport
	run := func(ctx context.Context) error {
		total, err := r.lister.CountDocuments(ctx)
		if err != nil {
			logger.Warn("[Corpus] Failed to count diagrams, progress has no total", "err", err)
			total = 0
		}

		report, err = r.sync.RunWithID(ctx, runID, r.lister.DiagramIDs(ctx), total, LogProgress)
		return err
	}

	if r.locker == nil {
		err := run(ctx)
		return report, err
	}

	opts := leaselock.Options{Owner: Owner(runID), TTL: r.ttl}
	err = r.locker.WithLease(ctx, LockKey, opts, run)
	return report, err
}

// Holder returns the run currently holding the sync lease, or nil when none
// does or the runner is unguarded.
func (r *Runner) Holder(ctx context.Context) (*leaselock.Holder, error) {
	if r.locker == nil {
		return nil, nil
	}
	return r.locker.Holder(ctx, LockKey)
}

// Owner is the lease owner recorded for a sync run on this host.
func Owner(runID string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown-host"
	}
	return host + "/" + runID
}

// RunIDFromOwner extracts the run id from a lease owner.
func RunIDFromOwner(owner string) string {
	if i := strings.LastIndex(owner, "/"); i >= 0 {
		return owner[i+1:]
	}
	return owner
}

// LogProgress logs a synchronisation progress snapshot.
func LogProgress(p graph.Progress) {
	sp := util.BuildSyncProgress(p.Done, p.Failed, p.Total, p.Elapsed)

	keyvals := []any{"run_id", p.RunID, "done", sp.Done, "failed", sp.Failed, "rate", fmt.Sprintf("%.1f/s", sp.Rate)}
	if sp.Percentage != nil {
		keyvals = append(keyvals, "percent", *sp.Percentage)
	}
	if sp.TimeRemaining != nil {
		keyvals = append(keyvals, "eta", sp.TimeRemaining.Round(time.Second))
	}

	if p.Completed {
		logger.Info("[Corpus] Synchronisation finished", keyvals...)
		return
	}
	logger.Info("[Corpus] Synchronisation progress", keyvals...)
}
