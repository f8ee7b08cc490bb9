// Package engine runs forward-model evaluations with logging, tracing and
// metrics around the pure evaluators in core.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/signalsfoundry/magnetic-anomaly-sim/core"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/logging"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/observability"
	"github.com/signalsfoundry/magnetic-anomaly-sim/model"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Body labels used for logs, spans and metrics.
const (
	BodyCylinder = "cylinder"
	BodySphere   = "sphere"
)

// MetricsRecorder receives one observation per evaluation and per emitted
// sweep frame. *observability.ForwardCollector satisfies it.
type MetricsRecorder interface {
	ObserveEvaluation(body string, points int, d time.Duration, err error)
	ObserveSweepFrame()
}

// Engine is safe for concurrent use; it holds no per-evaluation state.
type Engine struct {
	log     logging.Logger
	metrics MetricsRecorder
	workers int
}

// Option customises Engine construction.
type Option func(*Engine)

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithSweepWorkers bounds the goroutines used by SweepParallel. Values <= 0
// select GOMAXPROCS.
func WithSweepWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// New builds an Engine. A nil logger discards logs.
func New(log logging.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logging.Noop()
	}
	e := &Engine{log: log}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Cylinder evaluates the horizontal-cylinder profile over x.
func (e *Engine) Cylinder(ctx context.Context, p model.ParameterSet, x []float64) (core.CylinderField, error) {
	ctx, span := observability.StartSpan(ctx, "forward.cylinder",
		attribute.Int("points", len(x)),
		attribute.Float64("depth", p.Depth()),
		attribute.Float64("effective_inclination_deg", model.Degrees(p.EffectiveInclination())),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		e.finish(ctx, span, BodyCylinder, len(x), time.Now(), err)
		return core.CylinderField{}, err
	}
	start := time.Now()
	field, err := core.EvaluateCylinder(p, x)
	e.finish(ctx, span, BodyCylinder, len(x), start, err)
	if err != nil {
		return core.CylinderField{}, err
	}
	return field, nil
}

// Sphere evaluates the sphere anomaly over the mesh (X, Y) at the given
// inclination and azimuth in radians.
func (e *Engine) Sphere(ctx context.Context, p model.ParameterSet, inclination, azimuth float64, X, Y core.Matrix) (core.SphereField, error) {
	ctx, span := observability.StartSpan(ctx, "forward.sphere",
		attribute.Int("rows", X.Rows),
		attribute.Int("cols", X.Cols),
		attribute.Float64("inclination_deg", model.Degrees(inclination)),
		attribute.Float64("azimuth_deg", model.Degrees(azimuth)),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		e.finish(ctx, span, BodySphere, X.Len(), time.Now(), err)
		return core.SphereField{}, err
	}
	start := time.Now()
	field, err := core.EvaluateSphere(p, inclination, azimuth, X, Y)
	e.finish(ctx, span, BodySphere, X.Len(), start, err)
	if err != nil {
		return core.SphereField{}, err
	}
	return field, nil
}

// Sweep drives the lazy sphere sweep and hands each frame to fn in angle
// order. It stops at the first evaluation failure, the first error from fn,
// or when ctx is done.
func (e *Engine) Sweep(ctx context.Context, p model.ParameterSet, X, Y core.Matrix, angles []int, fn func(core.SweepFrame) error) error {
	ctx, span := observability.StartSpan(ctx, "forward.sweep",
		attribute.Int("frames", len(angles)),
		attribute.Int("rows", X.Rows),
		attribute.Int("cols", X.Cols),
	)
	defer span.End()
	log := logging.FromContext(ctx, e.log)

	start := time.Now()
	emitted := 0
	next := time.Now()
	for frame, err := range core.SweepSphere(p, X, Y, angles) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		e.record(BodySphere, X.Len(), time.Since(next), err)
		if err != nil {
			return e.failSweep(ctx, span, log, emitted, err)
		}
		e.frame()
		if err := fn(frame); err != nil {
			return e.failSweep(ctx, span, log, emitted, err)
		}
		emitted++
		next = time.Now()
	}

	log.Info(ctx, "sweep complete",
		logging.Int("frames", emitted),
		logging.Duration("took", time.Since(start)),
	)
	return nil
}

// SweepParallel computes all frames concurrently and returns them in angle
// order.
func (e *Engine) SweepParallel(ctx context.Context, p model.ParameterSet, X, Y core.Matrix, angles []int) ([]core.SweepFrame, error) {
	ctx, span := observability.StartSpan(ctx, "forward.sweep_parallel",
		attribute.Int("frames", len(angles)),
		attribute.Int("workers", e.workers),
	)
	defer span.End()
	log := logging.FromContext(ctx, e.log)

	start := time.Now()
	frames, err := core.SweepSphereParallel(ctx, p, X, Y, angles, e.workers)
	if err != nil {
		e.record(BodySphere, X.Len(), time.Since(start), err)
		return nil, e.failSweep(ctx, span, log, 0, err)
	}
	elapsed := time.Since(start)
	for range frames {
		e.record(BodySphere, X.Len(), elapsed/time.Duration(len(frames)), nil)
		e.frame()
	}
	log.Info(ctx, "parallel sweep complete",
		logging.Int("frames", len(frames)),
		logging.Int("workers", e.workers),
		logging.Duration("took", elapsed),
	)
	return frames, nil
}

func (e *Engine) finish(ctx context.Context, span trace.Span, body string, points int, start time.Time, err error) {
	took := time.Since(start)
	e.record(body, points, took, err)
	log := logging.FromContext(ctx, e.log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		log.Warn(ctx, "evaluation failed",
			logging.String("body", body),
			logging.String("outcome", observability.Outcome(err)),
			logging.Err(err),
		)
		return
	}
	log.Debug(ctx, "evaluation complete",
		logging.String("body", body),
		logging.Int("points", points),
		logging.Duration("took", took),
	)
}

func (e *Engine) failSweep(ctx context.Context, span trace.Span, log logging.Logger, emitted int, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	fields := []logging.Field{
		logging.Int("frames_emitted", emitted),
		logging.String("outcome", observability.Outcome(err)),
		logging.Err(err),
	}
	var sweepErr *core.SweepError
	if errors.As(err, &sweepErr) {
		fields = append(fields, logging.Int("angle_deg", sweepErr.AngleDeg))
	}
	log.Warn(ctx, "sweep aborted", fields...)
	return err
}

func (e *Engine) record(body string, points int, d time.Duration, err error) {
	if e.metrics != nil {
		e.metrics.ObserveEvaluation(body, points, d, err)
	}
}

func (e *Engine) frame() {
	if e.metrics != nil {
		e.metrics.ObserveSweepFrame()
	}
}
