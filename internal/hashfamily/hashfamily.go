// Package hashfamily generates the p-stable hash functions of the LSH index.
//
// A HashFunction maps a vector p to floor((a·p + b) / r), where a is a random
// projection and b a random offset in [0, r). The projection is drawn from a
// 1-stable (Cauchy) distribution for the Manhattan metric and from a 2-stable
// (Gaussian) distribution otherwise.
//
// Under the angular metric the family normalizes p and then applies the same
// linear threshold. This is not the sign-of-projection (SimHash) scheme
// usually used for cosine LSH; results depend on that exact behavior.
//
// # Randomness
//
// All draws come from a single rand.Source owned by the Generator and are
// consumed strictly sequentially: function by function, and within a function
// every component of a in order, then b. Replaying the same seed therefore
// reproduces the same families.
package hashfamily

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hupe1980/golsh/distance"
)

// ErrInvalidParameter is returned for non-positive dimensions, widths or
// function counts.
var ErrInvalidParameter = errors.New("invalid hash family parameter")

// pcgStream decorrelates the two PCG state words derived from one seed.
const pcgStream = 0x9E3779B97F4A7C15

// NewSource returns the deterministic random engine for seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^pcgStream)
}

// HashFunction is one scalar p-stable hash function.
type HashFunction struct {
	a     []float64
	b     float64
	width float64
}

// Projection returns the projection vector a. It must not be modified.
func (h HashFunction) Projection() []float64 { return h.a }

// Offset returns the offset b.
func (h HashFunction) Offset() float64 { return h.b }

// Hash returns floor((a·p + b) / r). p must already be normalized when the
// metric is angular.
func (h HashFunction) Hash(p []float64) int64 {
	return int64(math.Floor((floats.Dot(h.a, p) + h.b) / h.width))
}

// Family combines m hash functions into one vector-valued key function.
type Family struct {
	funcs     []HashFunction
	dim       int
	normalize bool
}

// Size returns the number of hash functions (the key length).
func (f *Family) Size() int { return len(f.funcs) }

// Dim returns the vector dimension the family was drawn for.
func (f *Family) Dim() int { return f.dim }

// Functions returns the hash functions of the family. It must not be modified.
func (f *Family) Functions() []HashFunction { return f.funcs }

// Key evaluates all hash functions on p.
func (f *Family) Key(p []float64) ([]int64, error) {
	return f.AppendKey(make([]int64, 0, len(f.funcs)), p)
}

// AppendKey evaluates all hash functions on p and appends the results to dst.
func (f *Family) AppendKey(dst []int64, p []float64) ([]int64, error) {
	if len(p) != f.dim {
		return dst, fmt.Errorf("%w: family dimension %d, vector dimension %d", ErrInvalidParameter, f.dim, len(p))
	}
	if f.normalize {
		normalized, err := distance.Normalize(p)
		if err != nil {
			return dst, err
		}
		p = normalized
	}
	for _, h := range f.funcs {
		dst = append(dst, h.Hash(p))
	}
	return dst, nil
}

// Generator draws hash functions for one metric, dimension and bucket width.
// It is not safe for concurrent use.
type Generator struct {
	metric     distance.Metric
	dim        int
	width      float64
	projection distuv.Rander
	offset     distuv.Rander
}

// NewGenerator creates a generator consuming randomness from src.
func NewGenerator(metric distance.Metric, dim int, width float64, src rand.Source) (*Generator, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("%w: %s", distance.ErrUnknownMetric, metric)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ErrInvalidParameter, dim)
	}
	if !(width > 0) || math.IsInf(width, 1) {
		return nil, fmt.Errorf("%w: bucket width %v", ErrInvalidParameter, width)
	}

	var projection distuv.Rander = distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	if metric == distance.Manhattan {
		// Student's t with one degree of freedom is the standard Cauchy distribution.
		projection = distuv.StudentsT{Mu: 0, Sigma: 1, Nu: 1, Src: src}
	}

	return &Generator{
		metric:     metric,
		dim:        dim,
		width:      width,
		projection: projection,
		offset:     distuv.Uniform{Min: 0, Max: width, Src: src},
	}, nil
}

// NewFunction draws one hash function: every component of a, then b.
func (g *Generator) NewFunction() HashFunction {
	a := make([]float64, g.dim)
	for i := range a {
		a[i] = g.projection.Rand()
	}
	return HashFunction{a: a, b: g.offset.Rand(), width: g.width}
}

// NewFamily draws m hash functions in order and combines them.
func (g *Generator) NewFamily(m int) (*Family, error) {
	if m <= 0 {
		return nil, fmt.Errorf("%w: hash count %d", ErrInvalidParameter, m)
	}
	funcs := make([]HashFunction, m)
	for i := range funcs {
		funcs[i] = g.NewFunction()
	}
	return &Family{
		funcs:     funcs,
		dim:       g.dim,
		normalize: g.metric == distance.Angular,
	}, nil
}

// NewFamilies draws l families of m functions each, table by table.
func (g *Generator) NewFamilies(l, m int) ([]*Family, error) {
	if l <= 0 {
		return nil, fmt.Errorf("%w: table count %d", ErrInvalidParameter, l)
	}
	families := make([]*Family, l)
	for i := range families {
		f, err := g.NewFamily(m)
		if err != nil {
			return nil, err
		}
		families[i] = f
	}
	return families, nil
}
