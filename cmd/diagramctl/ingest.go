package main

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/diagramkg/internal/bootstrap"
	"github.com/OFFIS-RIT/diagramkg/internal/ingest"
	"github.com/OFFIS-RIT/diagramkg/internal/storage"
	"github.com/OFFIS-RIT/diagramkg/internal/util"
	"github.com/OFFIS-RIT/diagramkg/pkg/loader"
	loaderio "github.com/OFFIS-RIT/diagramkg/pkg/loader/io"
	loaders3 "github.com/OFFIS-RIT/diagramkg/pkg/loader/s3"

	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	var (
		dir      string
		s3Prefix string
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load an AI2D dataset into MongoDB and PostgreSQL.",
		Long: "Reads annotations/<id>.json and categories.json below the dataset root, " +
			"stores every annotation document in MongoDB and indexes its text in PostgreSQL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (dir == "") == (s3Prefix == "") {
				return fmt.Errorf("exactly one of --dir or --s3-prefix is required")
			}
			ctx := cmd.Context()

			var (
				fileLoader loader.FileLoader
				root       string
			)
			if dir != "" {
				fileLoader, root = loaderio.NewIOFileLoader(), dir
			} else {
				cfg := storage.ConfigFromEnv()
				s3Loader, err := loaders3.NewS3FileLoader(ctx, loaders3.NewS3FileLoaderParams{
					Bucket:    cfg.Bucket,
					Endpoint:  cfg.Endpoint,
					Region:    cfg.Region,
					AccessKey: cfg.AccessKey,
					SecretKey: cfg.SecretKey,
				})
				if err != nil {
					return err
				}
				fileLoader, root = s3Loader, s3Prefix
			}

			pool, keywords, err := bootstrap.OpenPostgres(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			docs, err := bootstrap.OpenDocuments(ctx)
			if err != nil {
				return err
			}
			defer docs.Close(context.Background())

			ing, err := ingest.NewIngester(ingest.NewIngesterParams{
				Loader:        fileLoader,
				Documents:     docs,
				Keywords:      keywords,
				StoragePrefix: util.GetEnvString("STORAGE_KEY_PREFIX", storage.DefaultKeyPrefix),
				Parallel:      parallel,
			})
			if err != nil {
				return err
			}

			report, err := ing.Run(ctx, root)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ingested %d diagrams, %d failed in %s\n", report.Ingested, report.Failed, report.Duration)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "dataset root on local disk")
	cmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "dataset root key prefix in AWS_BUCKET")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "annotations ingested concurrently")
	return cmd
}
