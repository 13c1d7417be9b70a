package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/diagramkg/pkg/graph"
	"github.com/OFFIS-RIT/diagramkg/pkg/leaselock"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"
)

// SyncQueue carries graph synchronisation requests.
const SyncQueue = "sync_queue"

// QueueSyncMsg asks the worker to project one diagram, or the whole corpus
// when All is set.
type QueueSyncMsg struct {
	DiagramID string `json:"diagram_id,omitempty"`
	All       bool   `json:"all,omitempty"`
}

func (m QueueSyncMsg) Validate() error {
	if m.All && m.DiagramID != "" {
		return fmt.Errorf("sync message sets both diagram_id and all")
	}
	if !m.All && m.DiagramID == "" {
		return fmt.Errorf("sync message needs diagram_id or all")
	}
	return nil
}

// EnqueueSync publishes a sync request.
func EnqueueSync(ch Channel, msg QueueSyncMsg) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return PublishFIFO(ch, SyncQueue, data)
}

// CorpusSyncFunc runs a full corpus synchronisation.
type CorpusSyncFunc func(ctx context.Context) (graph.SyncReport, error)

// ProcessSyncMessage handles one sync_queue message. Malformed messages and
// diagrams that do not exist are dropped, since retrying cannot fix them. A
// corpus run that finds another run in progress is dropped as well.
func ProcessSyncMessage(
	ctx context.Context,
	projector graph.DiagramProjector,
	corpus CorpusSyncFunc,
	msg string,
) error {
	var data QueueSyncMsg
	if err := json.Unmarshal([]byte(msg), &data); err != nil {
		logger.Error("[Queue] Dropping malformed sync message", "err", err)
		return nil
	}
	if err := data.Validate(); err != nil {
		logger.Error("[Queue] Dropping invalid sync message", "err", err)
		return nil
	}

	if data.All {
		if corpus == nil {
			logger.Error("[Queue] Corpus sync requested but not configured")
			return nil
		}
		report, err := corpus(ctx)
		if errors.Is(err, leaselock.ErrBusy) {
			logger.Info("[Queue] Corpus sync already running, dropping request", "reason", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("corpus sync failed: %w", err)
		}
		logger.Info("[Queue] Corpus sync done", "run_id", report.RunID, "processed", report.Processed, "failed", report.Failed)
		return nil
	}

	projection, err := projector.ProjectDiagram(ctx, data.DiagramID)
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn("[Queue] Diagram not found, dropping sync message", "diagram_id", data.DiagramID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to project diagram %s: %w", data.DiagramID, err)
	}

	logger.Info(
		"[Queue] Diagram projected",
		"diagram_id", data.DiagramID,
		"concepts", len(projection.Contains),
		"connections", len(projection.Connections),
		"fallback", projection.Fallback,
	)
	return nil
}
