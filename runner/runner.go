// Package runner answers a batch of queries against an index.
//
// Queries run on a bounded pool of workers and can be paced to a fixed rate.
// A failing query does not stop the batch: its error is recorded in the
// returned golsh.SearchResults and the remaining queries continue.
package runner

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/golsh"
	"github.com/hupe1980/golsh/config"
)

// Searcher is the query surface of *golsh.Index.
type Searcher interface {
	RangeSearch(q []float64, radius float64) (golsh.SearchResult, error)
	KNNSearch(q []float64, k int) (golsh.SearchResult, error)
}

// Request selects the search performed for every query.
type Request struct {
	Mode  config.Mode
	Range float64
	K     int
}

// Options configures Run.
type Options struct {
	// Workers bounds concurrent queries; <= 0 uses GOMAXPROCS.
	Workers int
	// QPS paces query starts; <= 0 disables pacing.
	QPS float64
	// Logger receives the batch summary; nil disables logging.
	Logger *golsh.Logger
}

// Run answers queries and returns one result per query position.
//
// The returned error is non-nil only when the request is invalid or ctx is
// canceled; per-query failures are reported through SearchResults.Errors.
func Run(ctx context.Context, s Searcher, queries [][]float64, req Request, opts Options) (*golsh.SearchResults, error) {
	search, err := searchFunc(s, req)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var limiter *rate.Limiter
	if opts.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.QPS), 1)
	}
	logger := opts.Logger
	if logger == nil {
		logger = golsh.NoopLogger()
	}

	results := golsh.NewSearchResults(len(queries))
	errs := make([]error, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, q := range queries {
		if limiter != nil {
			if err := limiter.Wait(gctx); err != nil {
				break
			}
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, err := search(q)
			if err != nil {
				errs[i] = err
				return nil
			}
			results.Set(i, r)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, err := range errs {
		if err != nil {
			results.Fail(i, err)
		}
	}
	logger.LogBatch(ctx, len(queries), results.Failed())
	return results, nil
}

func searchFunc(s Searcher, req Request) (func([]float64) (golsh.SearchResult, error), error) {
	switch req.Mode {
	case config.ModeRange:
		return func(q []float64) (golsh.SearchResult, error) {
			return s.RangeSearch(q, req.Range)
		}, nil
	case config.ModeKNN:
		if req.K <= 0 {
			return nil, golsh.ErrInvalidK
		}
		return func(q []float64) (golsh.SearchResult, error) {
			return s.KNNSearch(q, req.K)
		}, nil
	default:
		return nil, golsh.NewConfigurationError("search.mode", fmt.Sprintf("unknown mode %q", req.Mode))
	}
}

// RequestFromConfig returns the request described by cfg.
func RequestFromConfig(cfg *config.Config) Request {
	return Request{Mode: cfg.Search.Mode, Range: cfg.Search.Range, K: cfg.Search.K}
}
