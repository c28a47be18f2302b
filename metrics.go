package golsh

import (
	"sync/atomic"
	"time"
)

// SearchKind identifies the search algorithm in metrics and logs.
type SearchKind string

const (
	// SearchKindRange is a fixed-radius search.
	SearchKindRange SearchKind = "range"
	// SearchKindKNN is a k-nearest-neighbor search.
	SearchKindKNN SearchKind = "knn"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    searchHistogram *prometheus.HistogramVec
//	}
//
//	func (p *PrometheusCollector) RecordSearch(kind golsh.SearchKind, candidates, results int, d time.Duration, err error) {
//	    p.searchHistogram.WithLabelValues(string(kind)).Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordBuild is called after each Build.
	// count is the number of vectors in the dataset.
	RecordBuild(count int, duration time.Duration, err error)

	// RecordInsert is called after each single-vector Insert.
	RecordInsert(duration time.Duration, err error)

	// RecordSearch is called after each range or knn search.
	// candidates is the raw bucket-content volume, results the number of matches.
	RecordSearch(kind SearchKind, candidates, results int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)                   {}
func (NoopMetricsCollector) RecordInsert(time.Duration, error)                       {}
func (NoopMetricsCollector) RecordSearch(SearchKind, int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount          atomic.Int64
	BuildItems          atomic.Int64
	BuildErrors         atomic.Int64
	BuildTotalNanos     atomic.Int64
	InsertCount         atomic.Int64
	InsertErrors        atomic.Int64
	InsertTotalNanos    atomic.Int64
	RangeSearchCount    atomic.Int64
	KNNSearchCount      atomic.Int64
	SearchErrors        atomic.Int64
	SearchTotalNanos    atomic.Int64
	SearchCandidates    atomic.Int64
	SearchResultsServed atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(count int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildItems.Add(int64(count))
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(kind SearchKind, candidates, results int, duration time.Duration, err error) {
	switch kind {
	case SearchKindRange:
		b.RangeSearchCount.Add(1)
	case SearchKindKNN:
		b.KNNSearchCount.Add(1)
	}
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
		return
	}
	b.SearchCandidates.Add(int64(candidates))
	b.SearchResultsServed.Add(int64(results))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	searches := b.RangeSearchCount.Load() + b.KNNSearchCount.Load()
	return BasicMetricsStats{
		BuildCount:       b.BuildCount.Load(),
		BuildItems:       b.BuildItems.Load(),
		BuildErrors:      b.BuildErrors.Load(),
		InsertCount:      b.InsertCount.Load(),
		InsertErrors:     b.InsertErrors.Load(),
		InsertAvgNanos:   avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		RangeSearchCount: b.RangeSearchCount.Load(),
		KNNSearchCount:   b.KNNSearchCount.Load(),
		SearchErrors:     b.SearchErrors.Load(),
		SearchAvgNanos:   avg(b.SearchTotalNanos.Load(), searches),
		AvgCandidates:    avg(b.SearchCandidates.Load(), searches-b.SearchErrors.Load()),
		ResultsServed:    b.SearchResultsServed.Load(),
	}
}

func avg(total, count int64) int64 {
	if count <= 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount       int64
	BuildItems       int64
	BuildErrors      int64
	InsertCount      int64
	InsertErrors     int64
	InsertAvgNanos   int64
	RangeSearchCount int64
	KNNSearchCount   int64
	SearchErrors     int64
	SearchAvgNanos   int64
	AvgCandidates    int64
	ResultsServed    int64
}
