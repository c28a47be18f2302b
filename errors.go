package golsh

import (
	"errors"
	"fmt"

	"github.com/hupe1980/golsh/distance"
	"github.com/hupe1980/golsh/internal/arena"
)

var (
	// ErrNotBuilt is returned when a search runs before any hash family exists
	// (neither Build nor Insert has been called).
	ErrNotBuilt = errors.New("index not built")

	// ErrAlreadyBuilt is returned when Build is called on an index whose hash
	// families already exist.
	ErrAlreadyBuilt = errors.New("index already built")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrDuplicateID is returned when an identifier is inserted twice.
	ErrDuplicateID = errors.New("duplicate identifier")
)

// ErrConfiguration indicates invalid index parameters: an unknown metric
// name, a non-positive bucket width, or a zero hash or table count.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrConfiguration struct {
	Field  string
	Reason string
	cause  error
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ErrConfiguration) Unwrap() error { return e.cause }

// NewConfigurationError returns an ErrConfiguration for field.
func NewConfigurationError(field, reason string) *ErrConfiguration {
	return &ErrConfiguration{Field: field, Reason: reason}
}

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrDegenerateVector indicates a vector that cannot be hashed or measured:
// a non-finite component under any metric, or zero magnitude under the
// angular metric. ID is the offending vector's identifier; it is zero for
// queries.
//
// Err is distance.ErrNonFinite or distance.ErrZeroVector; nil means the
// latter.
type ErrDegenerateVector struct {
	ID  uint64
	Err error
}

func (e *ErrDegenerateVector) Error() string {
	return fmt.Sprintf("degenerate vector %d: %v", e.ID, e.Unwrap())
}

func (e *ErrDegenerateVector) Unwrap() error {
	if e.Err == nil {
		return distance.ErrZeroVector
	}
	return e.Err
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, arena.ErrDuplicateID) {
		return fmt.Errorf("%w: %w", ErrDuplicateID, err)
	}
	if errors.Is(err, distance.ErrUnknownMetric) {
		return &ErrConfiguration{Field: "metric", Reason: err.Error(), cause: err}
	}

	return err
}
