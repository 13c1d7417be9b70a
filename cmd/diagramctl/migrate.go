package main

import (
	"github.com/OFFIS-RIT/diagramkg/internal/db"
	"github.com/OFFIS-RIT/diagramkg/internal/util"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema migrations.",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := util.RequireEnv("DATABASE_URL")
			if err != nil {
				return err
			}
			if down > 0 {
				return db.Rollback(url, down)
			}
			return db.Migrate(url)
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations instead of migrating up")
	return cmd
}
