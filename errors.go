package treecode

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCapacity is the panic value of NewOrdered for a non-positive capacity.
	ErrInvalidCapacity = errors.New("treecode: ordered capacity must be > 0")

	// ErrInvalidConfig is wrapped by every configuration validation error.
	ErrInvalidConfig = errors.New("treecode: invalid config")

	// ErrDimensionMismatch is wrapped by DimensionError.
	ErrDimensionMismatch = errors.New("treecode: dimension mismatch")

	// ErrCoverage is returned by CheckCoverage when the leaf blocks of a
	// BlockMatrix do not cover every matrix entry exactly once.
	ErrCoverage = errors.New("treecode: block coverage violated")
)

// DimensionError reports an input whose length does not match the declared shape.
type DimensionError struct {
	What     string
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("treecode: %s length %d does not match expected %d", e.What, e.Actual, e.Expected)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// checkLen returns a *DimensionError when got != want.
func checkLen(what string, got, want int) error {
	if got != want {
		return &DimensionError{What: what, Expected: want, Actual: got}
	}
	return nil
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
