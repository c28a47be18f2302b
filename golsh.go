package golsh

import (
	"context"
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/golsh/distance"
	"github.com/hupe1980/golsh/internal/arena"
	"github.com/hupe1980/golsh/internal/bucket"
	"github.com/hupe1980/golsh/internal/hashfamily"
	"github.com/hupe1980/golsh/internal/queue"
)

// Point is a vector with its stable identifier.
type Point struct {
	ID     uint64
	Vector []float64
}

// Params are the construction parameters of an Index.
type Params struct {
	// HashCount is m, the number of hash functions per table.
	HashCount int
	// Width is r, the bucket width of every hash function.
	Width float64
	// Tables is L, the number of independent hash tables.
	Tables int
	// Metric is the distance metric.
	Metric distance.Metric
	// Seed seeds the random engine that draws the hash families.
	Seed uint64
	// Dimension is the vector dimension; zero until fixed by the first vector
	// unless configured with WithDimension.
	Dimension int
}

// Index is an in-memory LSH index over fixed-dimension vectors.
//
// The dataset is stored once in an append-only arena; each of the L tables
// maps hash keys to handles into that arena. Hash families are drawn exactly
// once, by Build or by the first Insert, and never change afterwards.
//
// Searches may run concurrently with each other. Build and Insert must not
// run concurrently with any other method; the index does no internal locking.
type Index struct {
	params   Params
	opts     options
	logger   *Logger
	families []*hashfamily.Family
	tables   []*bucket.Table
	arena    *arena.Arena
}

// New creates an index with m hash functions per table, bucket width r and
// L tables. Invalid parameters are reported as *ErrConfiguration.
func New(m int, r float64, l int, optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)

	metric := o.metric
	if o.metricName != "" {
		parsed, err := distance.ParseMetric(o.metricName)
		if err != nil {
			return nil, translateError(err)
		}
		metric = parsed
	}

	switch {
	case !metric.Valid():
		return nil, NewConfigurationError("metric", fmt.Sprintf("unsupported metric %s", metric))
	case m < 1:
		return nil, NewConfigurationError("m", fmt.Sprintf("hash count must be at least 1, got %d", m))
	case l < 1:
		return nil, NewConfigurationError("L", fmt.Sprintf("table count must be at least 1, got %d", l))
	case !(r > 0) || math.IsInf(r, 1):
		return nil, NewConfigurationError("r", fmt.Sprintf("bucket width must be positive and finite, got %v", r))
	case o.dimension < 0:
		return nil, NewConfigurationError("dimension", fmt.Sprintf("must not be negative, got %d", o.dimension))
	}

	params := Params{
		HashCount: m,
		Width:     r,
		Tables:    l,
		Metric:    metric,
		Seed:      o.seed,
		Dimension: o.dimension,
	}

	return &Index{
		params: params,
		opts:   o,
		logger: o.logger.WithParams(params),
	}, nil
}

// Params returns the index parameters.
func (ix *Index) Params() Params { return ix.params }

// Dimension returns the vector dimension, or zero if it is not fixed yet.
func (ix *Index) Dimension() int { return ix.params.Dimension }

// Built reports whether the hash families exist.
func (ix *Index) Built() bool { return ix.families != nil }

// Len returns the number of inserted vectors.
func (ix *Index) Len() int {
	if ix.arena == nil {
		return 0
	}
	return ix.arena.Len()
}

// Build draws the L hash families and inserts every point of dataset.
//
// The dimension is taken from the first point unless configured. Build
// validates the whole dataset before touching the index, so a failed Build
// leaves the index unbuilt. Build may run only once; a second call, or a call
// after Insert created the families, returns ErrAlreadyBuilt.
func (ix *Index) Build(dataset []Point) (err error) {
	start := time.Now()
	defer func() {
		ix.opts.metricsCollector.RecordBuild(len(dataset), time.Since(start), err)
		ix.logger.LogBuild(context.Background(), len(dataset), ix.params.Dimension, err)
	}()

	if ix.Built() {
		return ErrAlreadyBuilt
	}

	dim := ix.params.Dimension
	if dim == 0 {
		if len(dataset) == 0 {
			return NewConfigurationError("dimension", "cannot infer dimension from an empty dataset")
		}
		dim = len(dataset[0].Vector)
	}
	if dim == 0 {
		return NewConfigurationError("dimension", "vectors must have at least one component")
	}

	seen := make(map[uint64]struct{}, len(dataset))
	for _, p := range dataset {
		if err := ix.checkPoint(p, dim); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateID, p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	if err := ix.deriveFamilies(dim, len(dataset)); err != nil {
		return err
	}
	for _, p := range dataset {
		if _, err := ix.arena.Append(p.ID, p.Vector); err != nil {
			return translateError(err)
		}
	}
	return ix.fill(0, arena.Handle(ix.arena.Len()))
}

// Insert adds one point to every table.
//
// Insert after Build extends the corpus without redrawing hash families.
// Insert on an unbuilt index fixes the dimension from p (unless configured)
// and draws the hash families first.
func (ix *Index) Insert(p Point) (err error) {
	start := time.Now()
	defer func() {
		ix.opts.metricsCollector.RecordInsert(time.Since(start), err)
		ix.logger.LogInsert(context.Background(), p.ID, len(p.Vector), err)
	}()

	dim := ix.params.Dimension
	if dim == 0 {
		dim = len(p.Vector)
		if dim == 0 {
			return NewConfigurationError("dimension", "vectors must have at least one component")
		}
	}
	if err := ix.checkPoint(p, dim); err != nil {
		return err
	}
	if ix.arena != nil && ix.arena.Contains(p.ID) {
		return fmt.Errorf("%w: %d", ErrDuplicateID, p.ID)
	}

	if !ix.Built() {
		if err := ix.deriveFamilies(dim, 0); err != nil {
			return err
		}
	}

	h, err := ix.arena.Append(p.ID, p.Vector)
	if err != nil {
		return translateError(err)
	}
	return ix.fill(h, h+1)
}

// checkPoint validates p against dim and the metric.
func (ix *Index) checkPoint(p Point, dim int) error {
	if len(p.Vector) != dim {
		return fmt.Errorf("vector %d: %w", p.ID, &ErrDimensionMismatch{Expected: dim, Actual: len(p.Vector)})
	}
	if err := ix.params.Metric.Check(p.Vector); err != nil {
		return &ErrDegenerateVector{ID: p.ID, Err: err}
	}
	return nil
}

// deriveFamilies draws all L hash families sequentially from one engine and
// allocates the tables and the arena.
func (ix *Index) deriveFamilies(dim, capacity int) error {
	gen, err := hashfamily.NewGenerator(ix.params.Metric, dim, ix.params.Width, hashfamily.NewSource(ix.params.Seed))
	if err != nil {
		return err
	}
	families, err := gen.NewFamilies(ix.params.Tables, ix.params.HashCount)
	if err != nil {
		return err
	}

	tables := make([]*bucket.Table, len(families))
	for i := range tables {
		tables[i] = bucket.NewTable()
	}

	ix.params.Dimension = dim
	ix.families = families
	ix.tables = tables
	ix.arena = arena.New(dim, capacity)
	ix.logger = ix.opts.logger.WithParams(ix.params)
	return nil
}

// fill hashes the arena range [from, to) into every table. Each table is
// owned by exactly one goroutine.
func (ix *Index) fill(from, to arena.Handle) error {
	g := new(errgroup.Group)
	g.SetLimit(ix.opts.parallelism)

	for t := range ix.families {
		g.Go(func() error {
			fam, tbl := ix.families[t], ix.tables[t]
			key := make([]int64, 0, fam.Size())
			for h := from; h < to; h++ {
				var err error
				key, err = fam.AppendKey(key[:0], ix.arena.Vector(h))
				if err != nil {
					return fmt.Errorf("table %d: %w", t, err)
				}
				tbl.Add(key, h)
			}
			return nil
		})
	}
	return g.Wait()
}

// checkQuery validates a query vector.
func (ix *Index) checkQuery(q []float64) error {
	if !ix.Built() {
		return ErrNotBuilt
	}
	if len(q) != ix.params.Dimension {
		return &ErrDimensionMismatch{Expected: ix.params.Dimension, Actual: len(q)}
	}
	if err := ix.params.Metric.Check(q); err != nil {
		return &ErrDegenerateVector{Err: err}
	}
	return nil
}

// Keys returns the hash key of v in every table, in table order.
func (ix *Index) Keys(v []float64) ([][]int64, error) {
	if err := ix.checkQuery(v); err != nil {
		return nil, err
	}
	keys := make([][]int64, len(ix.families))
	for i, fam := range ix.families {
		key, err := fam.Key(v)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

// candidates gathers the handles stored in the buckets selected by q, table
// by table in index order, without deduplication. A positive limit stops the
// probe as soon as that many handles are collected, even mid-table.
func (ix *Index) candidates(q []float64, limit int) ([]arena.Handle, error) {
	if err := ix.checkQuery(q); err != nil {
		return nil, err
	}

	var (
		out     []arena.Handle
		scratch []byte
		err     error
	)
	key := make([]int64, 0, ix.params.HashCount)
	for t, fam := range ix.families {
		key, err = fam.AppendKey(key[:0], q)
		if err != nil {
			return nil, err
		}
		var b []uint32
		b, scratch = ix.tables[t].Get(key, scratch)
		for _, h := range b {
			out = append(out, h)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// Candidates returns the raw candidate list of q: the contents of the bucket
// selected by q in table 0, then table 1, and so on. A vector found in
// several tables appears several times. If limit > 0 at most limit
// candidates are returned and the probe stops early; limit <= 0 means
// unbounded.
func (ix *Index) Candidates(q []float64, limit int) ([]Point, error) {
	handles, err := ix.candidates(q, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Point, len(handles))
	for i, h := range handles {
		out[i] = ix.point(h)
	}
	return out, nil
}

// RangeSearch returns every distinct candidate of q whose distance to q is
// strictly less than radius, in first-seen order.
func (ix *Index) RangeSearch(q []float64, radius float64) (res SearchResult, err error) {
	start := time.Now()
	defer func() { ix.observe(SearchKindRange, start, res, err) }()

	handles, err := ix.candidates(q, 0)
	if err != nil {
		return SearchResult{}, err
	}
	res.BucketContent = len(handles)

	seen := roaring.New()
	for _, h := range handles {
		if !seen.CheckedAdd(h) {
			continue
		}
		res.DistinctNodeAccess++

		v := ix.arena.Vector(h)
		d, err := ix.params.Metric.Distance(q, v)
		if err != nil {
			return SearchResult{}, &ErrDegenerateVector{ID: ix.arena.ID(h)}
		}
		if d < radius {
			res.Matches = append(res.Matches, Match{ID: ix.arena.ID(h), Distance: d, Vector: v})
		}
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

// KNNSearch returns up to k distinct candidates of q in ascending distance
// order. Equal distances keep candidate visitation order. Fewer than k
// matches are returned when the probed buckets hold fewer distinct vectors.
func (ix *Index) KNNSearch(q []float64, k int) (res SearchResult, err error) {
	start := time.Now()
	defer func() { ix.observe(SearchKindKNN, start, res, err) }()

	if k <= 0 {
		return SearchResult{}, ErrInvalidK
	}

	handles, err := ix.candidates(q, 0)
	if err != nil {
		return SearchResult{}, err
	}
	res.BucketContent = len(handles)

	seen := roaring.New()
	top := queue.NewBounded(k)
	for _, h := range handles {
		if !seen.CheckedAdd(h) {
			continue
		}
		res.DistinctNodeAccess++

		d, err := ix.params.Metric.Distance(q, ix.arena.Vector(h))
		if err != nil {
			return SearchResult{}, &ErrDegenerateVector{ID: ix.arena.ID(h)}
		}
		top.Push(h, d)
	}

	sorted := top.Sorted()
	res.Matches = make([]Match, len(sorted))
	for i, item := range sorted {
		res.Matches[i] = Match{
			ID:       ix.arena.ID(item.Node),
			Distance: item.Distance,
			Vector:   ix.arena.Vector(item.Node),
		}
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

func (ix *Index) observe(kind SearchKind, start time.Time, res SearchResult, err error) {
	ix.opts.metricsCollector.RecordSearch(kind, res.BucketContent, res.Len(), time.Since(start), err)
	ix.logger.LogSearch(context.Background(), kind, res.BucketContent, res.Len(), err)
}

func (ix *Index) point(h arena.Handle) Point {
	return Point{ID: ix.arena.ID(h), Vector: ix.arena.Vector(h)}
}

// Point returns the stored point with identifier id. The vector is a
// read-only view into the index storage.
func (ix *Index) Point(id uint64) (Point, bool) {
	if ix.arena == nil {
		return Point{}, false
	}
	h, ok := ix.arena.Lookup(id)
	if !ok {
		return Point{}, false
	}
	return ix.point(h), true
}

// All iterates over the stored points in insertion order.
func (ix *Index) All() iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for h := range ix.Len() {
			if !yield(ix.point(arena.Handle(h))) {
				return
			}
		}
	}
}

// TableStats describes the occupancy of one hash table.
type TableStats struct {
	Buckets    int
	References int
	MaxBucket  int
}

// Stats summarizes the index.
type Stats struct {
	Params
	Vectors    int
	TableStats []TableStats
}

// Stats returns per-table occupancy statistics.
func (ix *Index) Stats() Stats {
	s := Stats{Params: ix.params, Vectors: ix.Len()}
	for _, tbl := range ix.tables {
		ts := tbl.Stats()
		s.TableStats = append(s.TableStats, TableStats{
			Buckets:    ts.Buckets,
			References: ts.References,
			MaxBucket:  ts.MaxBucket,
		})
	}
	return s
}
