package core

import (
	"context"
	"fmt"
	"iter"
	"runtime"

	"github.com/signalsfoundry/magnetic-anomaly-sim/model"
	"golang.org/x/sync/errgroup"
)

const (
	// SweepStartDeg and SweepEndDeg bound the default inclination sweep.
	SweepStartDeg = 0
	SweepEndDeg   = 90
)

// SweepFrame is the sphere anomaly at a single inclination.
type SweepFrame struct {
	AngleDeg int
	Field    SphereField
}

// DegreeRange returns the integers from through to, inclusive.
func DegreeRange(from, to int) ([]int, error) {
	if from > to {
		return nil, fmt.Errorf("%w: degree range start %d is after end %d", ErrInvalidParameter, from, to)
	}
	out := make([]int, 0, to-from+1)
	for d := from; d <= to; d++ {
		out = append(out, d)
	}
	return out, nil
}

// SweepSphere lazily evaluates the sphere anomaly once per angle, in the order
// given, holding the azimuth of p fixed. Each frame is computed from scratch.
//
// Iteration stops after the first failing frame, which is yielded with a
// *SweepError naming its angle.
func SweepSphere(p model.ParameterSet, X, Y Matrix, angles []int) iter.Seq2[SweepFrame, error] {
	return func(yield func(SweepFrame, error) bool) {
		for _, deg := range angles {
			frame, err := sweepFrame(p, X, Y, deg)
			if err != nil {
				yield(SweepFrame{}, err)
				return
			}
			if !yield(frame, nil) {
				return
			}
		}
	}
}

// CollectSweep drains a sweep into a slice, returning the first error.
func CollectSweep(seq iter.Seq2[SweepFrame, error]) ([]SweepFrame, error) {
	var frames []SweepFrame
	for frame, err := range seq {
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// SweepSphereParallel computes the same frames as SweepSphere using at most
// workers goroutines (GOMAXPROCS when workers <= 0). Frames are returned in
// the order of angles. The first failure cancels outstanding frames and no
// partial result is returned. The *SweepError names the first failing angle
// in sweep order, the one SweepSphere would stop at, regardless of which
// goroutine failed first.
func SweepSphereParallel(ctx context.Context, p model.ParameterSet, X, Y Matrix, angles []int, workers int) ([]SweepFrame, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	frames := make([]SweepFrame, len(angles))
	errs := make([]error, len(angles))
	done := make([]bool, len(angles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, deg := range angles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &SweepError{AngleDeg: deg, Err: err}
			}
			frame, err := sweepFrame(p, X, Y, deg)
			if err != nil {
				errs[i] = err
				return err
			}
			frames[i] = frame
			done[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		if first := firstFailure(p, X, Y, angles, errs, done); first != nil {
			return nil, first
		}
		return nil, err
	}
	return frames, nil
}

// firstFailure walks angles in order up to the earliest recorded failure,
// evaluating any frame that was skipped after cancellation.
func firstFailure(p model.ParameterSet, X, Y Matrix, angles []int, errs []error, done []bool) error {
	for i, deg := range angles {
		if errs[i] != nil {
			return errs[i]
		}
		if done[i] {
			continue
		}
		if _, err := sweepFrame(p, X, Y, deg); err != nil {
			return err
		}
	}
	return nil
}

func sweepFrame(p model.ParameterSet, X, Y Matrix, deg int) (SweepFrame, error) {
	q, err := p.WithInclination(float64(deg))
	if err != nil {
		return SweepFrame{}, &SweepError{AngleDeg: deg, Err: err}
	}
	field, err := EvaluateSphere(q, q.Inclination(), q.Azimuth(), X, Y)
	if err != nil {
		return SweepFrame{}, &SweepError{AngleDeg: deg, Err: err}
	}
	return SweepFrame{AngleDeg: deg, Field: field}, nil
}
