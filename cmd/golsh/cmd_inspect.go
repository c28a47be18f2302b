package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/golsh"
	"github.com/hupe1980/golsh/snapshot"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <location>",
		Short: "Print the parameters and table statistics of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, _ := cmd.Flags().GetString("name")
			jsonOut, _ := cmd.Flags().GetBool("json")

			store, err := openStore(ctx, args[0])
			if err != nil {
				return err
			}
			ix, err := snapshot.Load(ctx, store, name)
			if err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}

			stats := ix.Stats()
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			return printStats(cmd, stats)
		},
	}

	cmd.Flags().String("name", defaultSnapshotName, "Blob name of the snapshot")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func printStats(cmd *cobra.Command, stats golsh.Stats) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "metric:    %s\n", stats.Metric)
	fmt.Fprintf(out, "m:         %d\n", stats.HashCount)
	fmt.Fprintf(out, "r:         %g\n", stats.Width)
	fmt.Fprintf(out, "L:         %d\n", stats.Tables)
	fmt.Fprintf(out, "seed:      %d\n", stats.Seed)
	fmt.Fprintf(out, "dimension: %d\n", stats.Dimension)
	fmt.Fprintf(out, "vectors:   %d\n\n", stats.Vectors)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tBUCKETS\tREFERENCES\tMAX BUCKET")
	for i, t := range stats.TableStats {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\n", i, t.Buckets, t.References, t.MaxBucket)
	}
	return tw.Flush()
}
