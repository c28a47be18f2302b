// Command golsh builds LSH indexes from vector files, answers query batches
// and manages index snapshots.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/golsh"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "golsh",
		Short: "Locality-sensitive hashing for approximate nearest-neighbor search",
		Long: `golsh indexes dense vectors with p-stable locality-sensitive hashing and
answers range and k-nearest-neighbor queries against the index.

Reports and snapshots can be written to a local directory, to S3
(s3://bucket/prefix) or to a MinIO server (minio://endpoint/bucket/prefix).`,
		SilenceUsage: true,
		Version:      version,
	}

	rootCmd.PersistentFlags().String("config", "", "Run configuration file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(
		newSearchCmd(),
		newSnapshotCmd(),
		newInspectCmd(),
	)
	return rootCmd
}

// newLogger builds the logger selected by the persistent flags.
func newLogger(cmd *cobra.Command) (*golsh.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", levelName)
	}

	f, err := golsh.ParseLogFormat(format)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-format: %w", err)
	}
	return golsh.NewLoggerTo(cmd.ErrOrStderr(), f, level), nil
}
