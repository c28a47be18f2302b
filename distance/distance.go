// Package distance provides the distance metrics supported by the LSH index.
// Euclidean and Manhattan distances use SIMD-accelerated kernels from vek
// when available.
package distance

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/viterin/vek"
)

var (
	// ErrUnknownMetric is returned when a metric name is not recognized.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrZeroVector is returned when a zero-magnitude vector has to be
	// normalized (angular metric).
	ErrZeroVector = errors.New("zero-magnitude vector")

	// ErrNonFinite is returned for vectors with a NaN or infinite component.
	ErrNonFinite = errors.New("non-finite vector component")
)

// Metric represents the distance metric used for vector comparison.
type Metric uint8

const (
	// Euclidean is the L2 norm of the difference.
	Euclidean Metric = iota
	// Manhattan is the L1 norm of the difference.
	Manhattan
	// Angular is the Euclidean distance between the L2-normalized inputs.
	Angular
)

// ParseMetric resolves a metric name ("euclidean", "manhattan", "angular").
// Matching is case-insensitive.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "euclidean":
		return Euclidean, nil
	case "manhattan":
		return Manhattan, nil
	case "angular":
		return Angular, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}

func (m Metric) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case Manhattan:
		return "manhattan"
	case Angular:
		return "angular"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// Valid reports whether m is one of the supported metrics.
func (m Metric) Valid() bool {
	return m <= Angular
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMetric, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Distance computes the distance between u and v under m.
// Assumes u and v have the same length (caller's responsibility).
// Only Angular can fail, with ErrZeroVector.
func (m Metric) Distance(u, v []float64) (float64, error) {
	switch m {
	case Euclidean:
		return L2(u, v), nil
	case Manhattan:
		return L1(u, v), nil
	case Angular:
		return AngularL2(u, v)
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownMetric, uint8(m))
	}
}

// Check reports whether v can be hashed and measured under m: every component
// must be finite, and Angular additionally rejects zero vectors.
func (m Metric) Check(v []float64) error {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ErrNonFinite
		}
	}
	if m == Angular && vek.Norm(v) == 0 {
		return ErrZeroVector
	}
	return nil
}

// L2 returns the Euclidean distance between u and v.
func L2(u, v []float64) float64 {
	return vek.Distance(u, v)
}

// L1 returns the Manhattan distance between u and v.
func L1(u, v []float64) float64 {
	return vek.ManhattanDistance(u, v)
}

// AngularL2 returns the Euclidean distance between u/|u| and v/|v|.
// It does not allocate.
func AngularL2(u, v []float64) (float64, error) {
	nu, nv := vek.Norm(u), vek.Norm(v)
	if nu == 0 || nv == 0 {
		return 0, ErrZeroVector
	}

	var sum float64
	for i := range u {
		d := u[i]/nu - v[i]/nv
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// NormalizeInPlace L2-normalizes v in place.
func NormalizeInPlace(v []float64) error {
	norm := vek.Norm(v)
	if norm == 0 {
		return ErrZeroVector
	}
	for i := range v {
		v[i] /= norm
	}
	return nil
}

// Normalize returns a unit-length copy of v.
func Normalize(v []float64) ([]float64, error) {
	dst := slices.Clone(v)
	if err := NormalizeInPlace(dst); err != nil {
		return nil, err
	}
	return dst, nil
}
