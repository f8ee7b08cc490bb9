package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/magnetic-anomaly-sim/model"
)

var (
	// ErrInvalidParameter is re-exported from model so callers of core do
	// not need to import both packages to classify errors.
	ErrInvalidParameter = model.ErrInvalidParameter
	// ErrDomain indicates a formula was evaluated at a mathematical singularity.
	ErrDomain = errors.New("domain error")
	// ErrShapeMismatch indicates coordinate matrices of different shapes.
	ErrShapeMismatch = fmt.Errorf("%w: shape mismatch", ErrInvalidParameter)
)

// SweepError reports the inclination angle at which a sweep stopped.
type SweepError struct {
	AngleDeg int
	Err      error
}

func (e *SweepError) Error() string {
	return fmt.Sprintf("sweep frame %d°: %v", e.AngleDeg, e.Err)
}

func (e *SweepError) Unwrap() error {
	return e.Err
}
