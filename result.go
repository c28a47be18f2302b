package golsh

import (
	"errors"
	"fmt"
	"time"
)

// Match is one vector returned by a search.
type Match struct {
	ID       uint64
	Distance float64
	// Vector is a read-only view into the index storage.
	Vector []float64
}

// SearchResult is the outcome of a single range or knn search.
type SearchResult struct {
	// Matches holds the results: in first-seen order for range searches and
	// in ascending distance order for knn searches.
	Matches []Match

	// Elapsed is the wall time spent in the search.
	Elapsed time.Duration

	// BucketContent is the raw number of candidate references gathered from
	// all probed buckets, before deduplication.
	BucketContent int

	// DistinctNodeAccess is the number of distinct candidates whose distance
	// to the query was evaluated.
	DistinctNodeAccess int
}

// Len returns the number of matches.
func (r SearchResult) Len() int { return len(r.Matches) }

// IDs returns the identifiers of the matches in result order.
func (r SearchResult) IDs() []uint64 {
	ids := make([]uint64, len(r.Matches))
	for i, m := range r.Matches {
		ids[i] = m.ID
	}
	return ids
}

// Missing returns how many placeholders a reporter needs to pad this result
// to k rows.
func (r SearchResult) Missing(k int) int {
	return max(0, k-len(r.Matches))
}

// QueryError records the failure of one query in a batch.
type QueryError struct {
	Query int
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %d: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// SearchResults collects the results of a batch of queries. Results is
// indexed by query position; a failed query keeps an empty result and is
// listed in Errors.
type SearchResults struct {
	Results []SearchResult
	Errors  []*QueryError

	next int
}

// NewSearchResults creates a collection sized for n queries.
func NewSearchResults(n int) *SearchResults {
	return &SearchResults{Results: make([]SearchResult, n)}
}

// Add stores r at the next query position not yet filled by Add, growing
// Results once the preallocated positions are used up. Do not mix Add with
// concurrent Set calls.
func (s *SearchResults) Add(r SearchResult) {
	if s.next < len(s.Results) {
		s.Results[s.next] = r
	} else {
		s.Results = append(s.Results, r)
	}
	s.next++
}

// Set stores the result of query position q. Distinct positions may be set
// concurrently.
func (s *SearchResults) Set(q int, r SearchResult) {
	s.Results[q] = r
}

// Fail records err for query position q.
func (s *SearchResults) Fail(q int, err error) {
	s.Errors = append(s.Errors, &QueryError{Query: q, Err: err})
}

// Len returns the number of query positions.
func (s *SearchResults) Len() int { return len(s.Results) }

// Failed returns the number of failed queries.
func (s *SearchResults) Failed() int { return len(s.Errors) }

// TotalElapsed sums the elapsed time of all results.
func (s *SearchResults) TotalElapsed() time.Duration {
	var total time.Duration
	for _, r := range s.Results {
		total += r.Elapsed
	}
	return total
}

// Err joins all query errors, or returns nil if every query succeeded.
func (s *SearchResults) Err() error {
	if len(s.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(s.Errors))
	for i, e := range s.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
