package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/magnetic-anomaly-sim/model"
)

// SphereField is one evaluation of the sphere anomaly over a mesh. Every
// matrix has the shape of X.
type SphereField struct {
	X      Matrix
	Y      Matrix
	Hax    Matrix
	Hay    Matrix
	Za     Matrix
	DeltaT Matrix
}

// Rows and Cols report the mesh shape.
func (f SphereField) Rows() int { return f.X.Rows }
func (f SphereField) Cols() int { return f.X.Cols }

// DefaultSphereMesh returns the 51 x 51 mesh over [-depth, depth] used for
// the sphere model.
func DefaultSphereMesh(p model.ParameterSet) (Matrix, Matrix) {
	X, Y, _ := SphereMesh(p.Depth(), MeshPoints)
	return X, Y
}

// EvaluateSphereAt evaluates the sphere anomaly with the inclination and
// azimuth stored on p.
func EvaluateSphereAt(p model.ParameterSet, X, Y Matrix) (SphereField, error) {
	return EvaluateSphere(p, p.Inclination(), p.Azimuth(), X, Y)
}

// EvaluateSphere computes the two horizontal components, the vertical
// component and the total-field anomaly of a uniformly magnetised sphere
// centred p.Depth() below the origin. inclination and azimuth are in radians;
// the azimuth is measured from magnetic north to the X axis.
func EvaluateSphere(p model.ParameterSet, inclination, azimuth float64, X, Y Matrix) (SphereField, error) {
	if !isFinite(inclination) || !isFinite(azimuth) {
		return SphereField{}, fmt.Errorf("%w: angles must be finite, got I=%v A'=%v", ErrInvalidParameter, inclination, azimuth)
	}
	if !X.valid() || !Y.valid() {
		return SphereField{}, fmt.Errorf("%w: malformed coordinate matrix", ErrInvalidParameter)
	}
	if !X.SameShape(Y) {
		return SphereField{}, fmt.Errorf("%w: X is %dx%d, Y is %dx%d", ErrShapeMismatch, X.Rows, X.Cols, Y.Rows, Y.Cols)
	}

	sinI, cosI := math.Sincos(inclination)
	sinA, cosA := math.Sincos(azimuth)
	sin2I := math.Sin(2 * inclination)
	sin2A := math.Sin(2 * azimuth)
	cos2I := cosI * cosI
	sinSqI := sinI * sinI
	cosSqA := cosA * cosA
	sinSqA := sinA * sinA

	R := p.Depth()
	R2 := R * R
	scale := p.Mu0() / (4 * math.Pi) * p.MagneticMoment()

	rows, cols := X.Rows, X.Cols
	out := SphereField{
		X:      Matrix{Rows: rows, Cols: cols, Data: append([]float64(nil), X.Data...)},
		Y:      Matrix{Rows: rows, Cols: cols, Data: append([]float64(nil), Y.Data...)},
		Hax:    NewMatrix(rows, cols),
		Hay:    NewMatrix(rows, cols),
		Za:     NewMatrix(rows, cols),
		DeltaT: NewMatrix(rows, cols),
	}

	for idx := range X.Data {
		x, y := X.Data[idx], Y.Data[idx]
		if !isFinite(x) || !isFinite(y) {
			return SphereField{}, fmt.Errorf("%w: coordinate (%v, %v) at index %d", ErrInvalidParameter, x, y, idx)
		}
		x2, y2 := x*x, y*y
		r2 := x2 + y2 + R2
		if r2 == 0 {
			return SphereField{}, fmt.Errorf("%w: zero denominator at index %d", ErrDomain, idx)
		}
		c := scale / (r2 * r2 * math.Sqrt(r2))

		gx := 2*x2 - y2 - R2
		gy := 2*y2 - x2 - R2
		gz := 2*R2 - x2 - y2
		xy := 3 * x * y
		rx := 3 * R * x
		ry := 3 * R * y

		hax := c * (gx*cosI*cosA - rx*sinI + xy*cosA*sinI)
		hay := c * (gy*cosI*cosA - ry*sinI + xy*cosA*sinI)
		za := c * (gz*sinI - rx*cosI*cosA - ry*cosI*sinA)
		dt := c * (gz*sinSqI + gx*cos2I*cosSqA + gy*cos2I*sinSqA -
			rx*sin2I*cosA + xy*cos2I*sin2A - ry*sin2I*sinA)

		if !isFinite(hax) || !isFinite(hay) || !isFinite(za) || !isFinite(dt) {
			return SphereField{}, fmt.Errorf("%w: non-finite field at (%g, %g)", ErrDomain, x, y)
		}
		out.Hax.Data[idx] = hax
		out.Hay.Data[idx] = hay
		out.Za.Data[idx] = za
		out.DeltaT.Data[idx] = dt
	}
	return out, nil
}
