package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/diagramkg/internal/bootstrap"
	"github.com/OFFIS-RIT/diagramkg/internal/corpus"
	"github.com/OFFIS-RIT/diagramkg/pkg/leaselock"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"
	"github.com/OFFIS-RIT/diagramkg/pkg/store/memory"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	var (
		diagramID string
		dryRun    bool
		status    bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Project diagrams from MongoDB into the Neo4j knowledge graph.",
		Long: "Without --diagram-id every stored diagram is projected, guarded by a lease lock " +
			"so only one full pass runs at a time. --dry-run projects into memory and writes nothing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if status {
				return printLeaseStatus(ctx, out)
			}

			docs, err := bootstrap.OpenDocuments(ctx)
			if err != nil {
				return err
			}
			defer docs.Close(context.Background())

			var g store.GraphStore
			if dryRun {
				g = memory.NewGraphStore()
			} else {
				neo, err := bootstrap.OpenGraph(ctx)
				if err != nil {
					return err
				}
				defer neo.Close(context.Background())
				g = neo
			}

			projector, err := bootstrap.NewProjector(docs, g)
			if err != nil {
				return err
			}

			if diagramID != "" {
				projection, err := projector.ProjectDiagram(ctx, diagramID)
				if err != nil {
					return err
				}
				return writeJSON(out, projection)
			}

			var pool *pgxpool.Pool
			if !dryRun {
				p, _, err := bootstrap.OpenPostgres(ctx)
				if err != nil {
					return err
				}
				defer p.Close()
				pool = p
			}

			runner, err := bootstrap.NewCorpusRunner(pool, docs, projector)
			if err != nil {
				return err
			}
			report, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			return writeJSON(out, report)
		},
	}

	cmd.Flags().StringVar(&diagramID, "diagram-id", "", "project a single diagram and print its projection")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "project into memory instead of Neo4j")
	cmd.Flags().BoolVar(&status, "status", false, "show which sync run holds the lease and exit")
	return cmd
}

func printLeaseStatus(ctx context.Context, out io.Writer) error {
	pool, _, err := bootstrap.OpenPostgres(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	holder, err := leaselock.New(pool).Holder(ctx, corpus.LockKey)
	if err != nil {
		return err
	}
	if holder == nil {
		fmt.Fprintln(out, "no graph sync running")
		return nil
	}
	return writeJSON(out, struct {
		*leaselock.Holder
		RunID string `json:"run_id"`
	}{holder, corpus.RunIDFromOwner(holder.Owner)})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
