package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hupe1980/golsh"
	"github.com/hupe1980/golsh/config"
	"github.com/hupe1980/golsh/dataset"
	"github.com/hupe1980/golsh/report"
	"github.com/hupe1980/golsh/runner"
	"github.com/hupe1980/golsh/snapshot"
)

// addIndexFlags registers the flags that override the index parameters and
// the dataset of the configuration file.
func addIndexFlags(flags *pflag.FlagSet) {
	flags.String("metric", "", "Distance metric: euclidean, manhattan or angular")
	flags.IntP("hash-count", "m", 0, "Hash functions per table (m)")
	flags.Float64P("width", "r", 0, "Bucket width (r)")
	flags.IntP("tables", "L", 0, "Number of hash tables (L)")
	flags.Uint64("seed", 0, "Seed of the hash family generator")
	flags.String("dataset", "", "Dataset file (.csv, .fvecs or .bvecs)")
	flags.Int("dataset-size", 0, "Read at most this many dataset vectors (0 = all)")
}

// loadConfig reads --config (or the defaults) and applies the flags the user
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			apply()
		}
	}
	set("metric", func() { cfg.Metric, _ = flags.GetString("metric") })
	set("hash-count", func() { cfg.HashCount, _ = flags.GetInt("hash-count") })
	set("width", func() { cfg.Width, _ = flags.GetFloat64("width") })
	set("tables", func() { cfg.Tables, _ = flags.GetInt("tables") })
	set("seed", func() { cfg.Seed, _ = flags.GetUint64("seed") })
	set("dataset", func() { cfg.Dataset.Path, _ = flags.GetString("dataset") })
	set("dataset-size", func() { cfg.Dataset.Size, _ = flags.GetInt("dataset-size") })
	set("queries", func() { cfg.Queries.Path, _ = flags.GetString("queries") })
	set("queries-size", func() { cfg.Queries.Size, _ = flags.GetInt("queries-size") })
	set("mode", func() {
		mode, _ := flags.GetString("mode")
		cfg.Search.Mode = config.Mode(mode)
	})
	set("range", func() { cfg.Search.Range, _ = flags.GetFloat64("range") })
	set("k", func() { cfg.Search.K, _ = flags.GetInt("k") })
	set("output", func() { cfg.Output.URI, _ = flags.GetString("output") })
	set("workers", func() { cfg.Workers, _ = flags.GetInt("workers") })
	set("qps", func() { cfg.QPS, _ = flags.GetFloat64("qps") })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildIndex loads the configured dataset and builds an index over it.
func buildIndex(cfg *config.Config, logger *golsh.Logger) (*golsh.Index, error) {
	if cfg.Dataset.Path == "" {
		return nil, fmt.Errorf("no dataset: set dataset.path or --dataset")
	}
	vectors, err := dataset.Load(cfg.Dataset.Path, cfg.Dataset.Size)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	ix, err := cfg.NewIndex(golsh.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := ix.Build(dataset.Points(vectors)); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return ix, nil
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Build an index and answer a batch of queries",
		Long: `Build an index from the dataset (or restore it from a snapshot), answer
every query in range or knn mode and write the timing log and the result
table to the output location.

Example:
  golsh search --dataset base.fvecs --queries query.csv -m 4 -r 3 -L 8 --mode knn --k 10
  golsh search --config run.yaml --output s3://bench/runs/42`,
		RunE: runSearch,
	}

	flags := cmd.Flags()
	addIndexFlags(flags)
	flags.String("queries", "", "Query file (.csv, .fvecs or .bvecs)")
	flags.Int("queries-size", 0, "Read at most this many queries (0 = all)")
	flags.String("mode", "", "Search mode: range or knn")
	flags.Float64("range", 0, "Search radius in range mode")
	flags.Int("k", 0, "Neighbors per query in knn mode")
	flags.StringP("output", "o", "", "Output location: directory, s3://bucket/prefix or minio://endpoint/bucket/prefix")
	flags.Int("workers", 0, "Concurrent queries (0 = GOMAXPROCS)")
	flags.Float64("qps", 0, "Throttle queries per second (0 = unlimited)")
	flags.String("snapshot", "", "Restore the index from this snapshot location instead of building it")
	flags.String("snapshot-name", defaultSnapshotName, "Blob name of the snapshot")
	return cmd
}

func runSearch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	if cfg.Queries.Path == "" {
		return fmt.Errorf("no queries: set queries.path or --queries")
	}

	start := time.Now()
	var ix *golsh.Index
	if loc, _ := cmd.Flags().GetString("snapshot"); loc != "" {
		name, _ := cmd.Flags().GetString("snapshot-name")
		store, err := openStore(ctx, loc)
		if err != nil {
			return err
		}
		if ix, err = snapshot.Load(ctx, store, name, golsh.WithLogger(logger)); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
	} else if ix, err = buildIndex(cfg, logger); err != nil {
		return err
	}
	buildTime := time.Since(start)

	queries, err := dataset.Load(cfg.Queries.Path, cfg.Queries.Size)
	if err != nil {
		return fmt.Errorf("load queries: %w", err)
	}

	results, err := runner.Run(ctx, ix, queries, runner.RequestFromConfig(cfg), runner.Options{
		Workers: cfg.Workers,
		QPS:     cfg.QPS,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.Output.URI)
	if err != nil {
		return err
	}
	if err := report.Save(ctx, store, results, report.Options{
		K:      cfg.ReportK(),
		Log:    cfg.Output.Log,
		Result: cfg.Output.Result,
	}); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "indexed %d vectors in %s\n", ix.Len(), buildTime.Round(time.Millisecond))
	fmt.Fprintf(out, "answered %d queries (%d failed) in %s\n", results.Len(), results.Failed(), results.TotalElapsed())
	fmt.Fprintf(out, "wrote %s and %s to %s\n", cfg.Output.Log, cfg.Output.Result, cfg.Output.URI)
	return results.Err()
}
