package main

import (
	"fmt"
	"os"

	"github.com/OFFIS-RIT/diagramkg/internal/bootstrap"
	"github.com/OFFIS-RIT/diagramkg/internal/util"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "diagramctl",
		Short:         "Operate the diagram knowledge graph: migrations, ingestion and graph sync.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.LoadEnv()
			bootstrap.InitLogger("diagramctl")
		},
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newIngestCmd(),
		newSyncCmd(),
		newEnqueueCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
