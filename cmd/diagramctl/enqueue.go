package main

import (
	"fmt"

	"github.com/OFFIS-RIT/diagramkg/internal/queue"

	"github.com/spf13/cobra"
)

func newEnqueueCmd() *cobra.Command {
	var (
		diagramIDs []string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Publish graph sync requests for the worker.",
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs := make([]queue.QueueSyncMsg, 0, len(diagramIDs)+1)
			if all {
				msgs = append(msgs, queue.QueueSyncMsg{All: true})
			}
			for _, id := range diagramIDs {
				msgs = append(msgs, queue.QueueSyncMsg{DiagramID: id})
			}
			if len(msgs) == 0 {
				return fmt.Errorf("nothing to enqueue, pass --diagram-id or --all")
			}

			conn, err := queue.Init()
			if err != nil {
				return err
			}
			defer conn.Close()

			ch, err := conn.Channel()
			if err != nil {
				return fmt.Errorf("failed to open channel: %w", err)
			}
			defer ch.Close()

			if err := queue.SetupQueues(ch, []string{queue.SyncQueue}); err != nil {
				return err
			}
			for _, m := range msgs {
				if err := queue.EnqueueSync(ch, m); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %d sync requests\n", len(msgs))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&diagramIDs, "diagram-id", nil, "diagram ids to project")
	cmd.Flags().BoolVar(&all, "all", false, "request a full corpus sync")
	return cmd
}
