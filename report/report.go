// Package report writes batch search results as CSV tables.
//
// The log table has one row per query:
//
//	time,n_bucket_content
//	153,412
//
// where time is the search time in microseconds. The result table lists the
// matched identifiers of every query in result order:
//
//	query_id,data_id
//	0,17
//	0,-1
//
// In knn runs every query is padded with -1 rows up to k.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/golsh"
	"github.com/hupe1980/golsh/blobstore"
)

// Missing marks a padding row in the result table.
const Missing = -1

// Options controls Save.
type Options struct {
	// K pads every query to K result rows; zero disables padding.
	K int
	// Log is the blob name of the timing log; defaults to log.csv.
	Log string
	// Result is the blob name of the result table; defaults to result.csv.
	Result string
}

func (o Options) withDefaults() Options {
	if o.Log == "" {
		o.Log = "log.csv"
	}
	if o.Result == "" {
		o.Result = "result.csv"
	}
	return o
}

// WriteLog writes the per-query timing log.
func WriteLog(w io.Writer, results *golsh.SearchResults) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "n_bucket_content"}); err != nil {
		return err
	}
	for _, r := range results.Results {
		err := cw.Write([]string{
			strconv.FormatInt(r.Elapsed.Microseconds(), 10),
			strconv.Itoa(r.BucketContent),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResults writes the result table, padding each query with Missing rows
// up to k.
func WriteResults(w io.Writer, results *golsh.SearchResults, k int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"query_id", "data_id"}); err != nil {
		return err
	}

	row := make([]string, 2)
	for q, r := range results.Results {
		row[0] = strconv.Itoa(q)
		for _, m := range r.Matches {
			row[1] = strconv.FormatUint(m.ID, 10)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		row[1] = strconv.Itoa(Missing)
		for range r.Missing(k) {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes both tables to store.
func Save(ctx context.Context, store blobstore.BlobStore, results *golsh.SearchResults, opts Options) error {
	opts = opts.withDefaults()

	if err := blobstore.WriteTo(ctx, store, opts.Log, func(w io.Writer) error {
		return WriteLog(w, results)
	}); err != nil {
		return fmt.Errorf("save %s: %w", opts.Log, err)
	}
	if err := blobstore.WriteTo(ctx, store, opts.Result, func(w io.Writer) error {
		return WriteResults(w, results, opts.K)
	}); err != nil {
		return fmt.Errorf("save %s: %w", opts.Result, err)
	}
	return nil
}
