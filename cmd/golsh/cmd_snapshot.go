package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/golsh/snapshot"
)

const defaultSnapshotName = "index.glsh"

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot <location>",
		Short: "Build an index and save it as a snapshot",
		Long: `Build an index from the dataset and write a snapshot of it to location
(a directory, s3://bucket/prefix or minio://endpoint/bucket/prefix).

Example:
  golsh snapshot ./indexes --dataset base.fvecs -m 4 -r 3 -L 8 --compression lz4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			compressionName, _ := cmd.Flags().GetString("compression")
			compression, err := snapshot.ParseCompression(compressionName)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			ioLimit, _ := cmd.Flags().GetInt64("io-limit")

			ix, err := buildIndex(cfg, logger)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, args[0])
			if err != nil {
				return err
			}
			if err := snapshot.Save(ctx, store, name, ix, snapshot.Options{
				Compression: compression,
				BytesPerSec: ioLimit,
			}); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved %d vectors to %s (%s)\n", ix.Len(), name, compression)
			return nil
		},
	}

	addIndexFlags(cmd.Flags())
	cmd.Flags().String("name", defaultSnapshotName, "Blob name of the snapshot")
	cmd.Flags().String("compression", "zstd", "Compression: none, lz4 or zstd")
	cmd.Flags().Int64("io-limit", 0, "Throttle the upload to this many bytes per second (0 = unlimited)")
	return cmd
}
