package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/magnetic-anomaly-sim/model"
)

// SinEpsilon is the smallest |sin(i_s)| the total-field formula accepts.
// sin(math.Pi) is ~1.2e-16 rather than 0, so an exact comparison never trips.
const SinEpsilon = 1e-12

// CylinderField is one evaluation of the horizontal-cylinder profile.
// All slices have the length of X.
type CylinderField struct {
	X      []float64
	Za     []float64
	Ha     []float64
	DeltaT []float64
}

// Len returns the number of profile samples.
func (f CylinderField) Len() int { return len(f.X) }

// EvaluateCylinder computes the vertical, horizontal and total-field anomaly
// of an infinite horizontal cylinder along the profile x. The cylinder axis is
// perpendicular to the profile at depth p.Depth().
//
// The total-field term divides by sin(i_s); an effective inclination that is a
// multiple of pi fails with ErrDomain instead of producing Inf/NaN.
func EvaluateCylinder(p model.ParameterSet, x []float64) (CylinderField, error) {
	is := p.EffectiveInclination()
	sinIs, cosIs := math.Sincos(is)
	if math.Abs(sinIs) < SinEpsilon {
		return CylinderField{}, fmt.Errorf("%w: sin(effective inclination) is zero at %g rad", ErrDomain, is)
	}
	sin2, cos2 := math.Sincos(2*is - math.Pi/2)
	ratio := math.Sin(p.Inclination()) / sinIs

	R := p.Depth()
	R2 := R * R
	scale := p.Mu0() * p.MagneticMoment() / (2 * math.Pi)

	out := CylinderField{
		X:      make([]float64, len(x)),
		Za:     make([]float64, len(x)),
		Ha:     make([]float64, len(x)),
		DeltaT: make([]float64, len(x)),
	}
	copy(out.X, x)

	for i, xi := range x {
		if !isFinite(xi) {
			return CylinderField{}, fmt.Errorf("%w: coordinate x[%d] is %v", ErrInvalidParameter, i, xi)
		}
		x2 := xi * xi
		denom := x2 + R2
		if denom == 0 {
			return CylinderField{}, fmt.Errorf("%w: zero denominator at x[%d]", ErrDomain, i)
		}
		k := scale / (denom * denom)
		a := R2 - x2
		b := 2 * R * xi

		za := k * (a*sinIs - b*cosIs)
		ha := k * (a*cosIs + b*sinIs)
		dt := k * ratio * (a*sin2 - b*cos2)
		if !isFinite(za) || !isFinite(ha) || !isFinite(dt) {
			return CylinderField{}, fmt.Errorf("%w: non-finite field at x[%d]=%g", ErrDomain, i, xi)
		}
		out.Za[i] = za
		out.Ha[i] = ha
		out.DeltaT[i] = dt
	}
	return out, nil
}
