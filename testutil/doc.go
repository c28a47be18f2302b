// Package testutil provides testing utilities for golsh.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors, computing exact
// neighbors, and verifying search recall.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	data := rng.UniformVectors(1000, 16, -1, 1)
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.BruteForceSearch(distance.Euclidean, data, query, k)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
package testutil
