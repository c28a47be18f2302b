// Package golsh provides an in-memory locality-sensitive hashing index for
// approximate nearest-neighbor search over dense float64 vectors.
//
// The index hashes every vector into L independent tables. Each table uses a
// family of m p-stable hash functions h(p) = floor((a·p + b) / r), where the
// projection a is Gaussian for the euclidean and angular metrics and Cauchy
// for the manhattan metric, and b is uniform in [0, r). Vectors whose m-tuple
// of hashes agree share a bucket. A query probes the one bucket it selects in
// every table and scores only the vectors found there.
//
// # Quick Start
//
//	ix, _ := golsh.New(4, 3.0, 8, golsh.WithMetric(distance.Euclidean), golsh.WithSeed(7))
//	_ = ix.Build([]golsh.Point{
//	    {ID: 0, Vector: []float64{0, 0}},
//	    {ID: 1, Vector: []float64{1, 0}},
//	})
//
//	res, _ := ix.RangeSearch([]float64{0.5, 0}, 1.0)
//	for _, m := range res.Matches {
//	    fmt.Println(m.ID, m.Distance)
//	}
//
//	knn, _ := ix.KNNSearch([]float64{0.5, 0}, 1)
//
// # Determinism
//
// All hash functions are drawn from a single random engine seeded by
// WithSeed. Families are generated table by table, function by function, so
// the same seed, parameters and dataset always produce the same buckets and
// the same search results.
//
// # Metrics
//
// The angular metric normalizes vectors to unit length before hashing and
// reports the euclidean distance between the normalized vectors. Zero
// vectors cannot be normalized and are rejected with ErrDegenerateVector.
// Under every metric, vectors with NaN or infinite components are rejected
// the same way.
//
// # Concurrency
//
// Build fills the L tables in parallel, one goroutine per table. Searches only
// read the index and may run concurrently with each other. Build and Insert
// must not overlap with any other call.
package golsh
