package core

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signalsfoundry/magnetic-anomaly-sim/model"
)

func defaultParams(t *testing.T) model.ParameterSet {
	t.Helper()
	p, err := model.NewParameterSet(model.DefaultInput())
	if err != nil {
		t.Fatalf("NewParameterSet: %v", err)
	}
	return p
}

func originMesh() (Matrix, Matrix) {
	return Meshgrid([]float64{0}, []float64{0})
}

func TestSphereOriginVerticalField(t *testing.T) {
	p := defaultParams(t)
	X, Y := originMesh()

	f, err := EvaluateSphere(p, math.Pi/2, 0, X, Y)
	if err != nil {
		t.Fatalf("EvaluateSphere: %v", err)
	}
	if f.Rows() != 1 || f.Cols() != 1 {
		t.Fatalf("shape = %dx%d, want 1x1", f.Rows(), f.Cols())
	}

	R := p.Depth()
	wantZa := p.Mu0() * p.MagneticMoment() / (2 * math.Pi * R * R * R)
	if got := f.Za.At(0, 0); math.Abs(got-wantZa) > 1e-12*wantZa {
		t.Fatalf("Za(0,0) = %g, want %g", got, wantZa)
	}
	// cos(I) vanishes, so the horizontal components do too.
	for name, got := range map[string]float64{"Hax": f.Hax.At(0, 0), "Hay": f.Hay.At(0, 0)} {
		if math.Abs(got) > 1e-15*wantZa {
			t.Fatalf("%s(0,0) = %g, want ~0", name, got)
		}
	}
	if got := f.DeltaT.At(0, 0); math.Abs(got-wantZa) > 1e-12*wantZa {
		t.Fatalf("DeltaT(0,0) = %g, want %g", got, wantZa)
	}
}

func TestSphereOriginHorizontalField(t *testing.T) {
	p := defaultParams(t)
	X, Y := originMesh()

	f, err := EvaluateSphere(p, 0, 0, X, Y)
	if err != nil {
		t.Fatalf("EvaluateSphere: %v", err)
	}

	R := p.Depth()
	wantH := p.Mu0() / (4 * math.Pi) * p.MagneticMoment() * (-R * R) / math.Pow(R, 5)
	if got := f.Hax.At(0, 0); math.Abs(got-wantH) > 1e-12*math.Abs(wantH) {
		t.Fatalf("Hax(0,0) = %g, want %g", got, wantH)
	}
	if got := f.Hay.At(0, 0); math.Abs(got-wantH) > 1e-12*math.Abs(wantH) {
		t.Fatalf("Hay(0,0) = %g, want %g", got, wantH)
	}
	if got := f.Za.At(0, 0); got != 0 {
		t.Fatalf("Za(0,0) = %g, want 0", got)
	}
}

func TestSphereVerticalFieldIsRadiallySymmetric(t *testing.T) {
	p := defaultParams(t)
	X, Y := DefaultSphereMesh(p)

	f, err := EvaluateSphereAt(p, X, Y)
	if err != nil {
		t.Fatalf("EvaluateSphereAt: %v", err)
	}
	if !f.Za.SameShape(X) || !f.DeltaT.SameShape(X) || !f.Hax.SameShape(X) || !f.Hay.SameShape(X) {
		t.Fatalf("output shapes differ from mesh")
	}

	n := X.Rows
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a, b := f.Za.At(i, j), f.Za.At(j, i)
			c := f.Za.At(n-1-i, n-1-j)
			if math.Abs(a-b) > 1e-12*math.Abs(a)+1e-24 || math.Abs(a-c) > 1e-12*math.Abs(a)+1e-24 {
				t.Fatalf("Za not symmetric at (%d,%d): %g %g %g", i, j, a, b, c)
			}
		}
	}

	centre := f.Za.At(n/2, n/2)
	if s := Summarize(f.Za.Data); s.Max != centre {
		t.Fatalf("Za peak %g is not at the centre (%g)", s.Max, centre)
	}
}

func TestSphereShapeMismatch(t *testing.T) {
	p := defaultParams(t)
	X, _ := Meshgrid([]float64{0, 1}, []float64{0})
	_, Y := Meshgrid([]float64{0}, []float64{0, 1})

	_, err := EvaluateSphere(p, 0, 0, X, Y)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("error = %v, want ErrShapeMismatch", err)
	}
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("ErrShapeMismatch should match ErrInvalidParameter")
	}
}

func TestSphereRejectsBadInputs(t *testing.T) {
	t.Parallel()

	p := defaultParams(t)
	X, Y := originMesh()

	if _, err := EvaluateSphere(p, math.NaN(), 0, X, Y); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("NaN inclination error = %v", err)
	}
	badX := Matrix{Rows: 1, Cols: 1, Data: []float64{math.Inf(1)}}
	if _, err := EvaluateSphere(p, 0, 0, badX, Y); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("Inf coordinate error = %v", err)
	}
	short := Matrix{Rows: 2, Cols: 2, Data: []float64{0}}
	if _, err := EvaluateSphere(p, 0, 0, short, short); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("malformed matrix error = %v", err)
	}
}

func TestSphereIdempotent(t *testing.T) {
	p := defaultParams(t)
	X, Y := DefaultSphereMesh(p)

	first, err := EvaluateSphere(p, model.Radians(37), model.Radians(20), X, Y)
	if err != nil {
		t.Fatalf("EvaluateSphere: %v", err)
	}
	second, err := EvaluateSphere(p, model.Radians(37), model.Radians(20), X, Y)
	if err != nil {
		t.Fatalf("EvaluateSphere: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated evaluation differs:\n%s", diff)
	}
}

func TestSphereTotalFieldOnProfileAxis(t *testing.T) {
	// Along Y=0 with A'=0 the total-field anomaly is the projection of the
	// anomaly vector onto the inducing direction.
	p := defaultParams(t)
	X, Y := DefaultSphereMesh(p)
	inc := model.Radians(50)

	f, err := EvaluateSphere(p, inc, 0, X, Y)
	if err != nil {
		t.Fatalf("EvaluateSphere: %v", err)
	}
	dir := FieldDirection(inc, 0)
	mid := X.Rows / 2
	if Y.At(mid, 0) != 0 {
		t.Fatalf("row %d is not on the Y=0 axis", mid)
	}
	for j := 0; j < X.Cols; j++ {
		want := f.VectorAt(mid, j).Dot(dir)
		got := f.DeltaT.At(mid, j)
		if math.Abs(got-want) > 1e-9*math.Abs(want)+1e-22 {
			t.Fatalf("DeltaT(%d,%d) = %g, want %g", mid, j, got, want)
		}
	}
}

func TestSphereOffAxisWithAzimuth(t *testing.T) {
	p := defaultParams(t)
	inc, az := model.Radians(37), model.Radians(25)
	R := p.Depth()
	k := p.Mu0() / (4 * math.Pi) * p.MagneticMoment()
	scale := k / (R * R * R)

	tests := []struct {
		x, y float64
	}{
		{-300, 250},
		{420, -610},
		{-750, -120},
		{0, 500},
	}

	xs := make([]float64, len(tests))
	ys := make([]float64, len(tests))
	for i, tc := range tests {
		xs[i], ys[i] = tc.x, tc.y
	}
	X := Matrix{Rows: 1, Cols: len(tests), Data: xs}
	Y := Matrix{Rows: 1, Cols: len(tests), Data: ys}

	f, err := EvaluateSphere(p, inc, az, X, Y)
	if err != nil {
		t.Fatalf("EvaluateSphere: %v", err)
	}

	for j, tc := range tests {
		x, y := tc.x, tc.y
		c := k / math.Pow(x*x+y*y+R*R, 2.5)
		want := map[string]float64{
			"Hax": c * ((2*x*x-y*y-R*R)*math.Cos(inc)*math.Cos(az) - 3*R*x*math.Sin(inc) + 3*x*y*math.Cos(az)*math.Sin(inc)),
			"Hay": c * ((2*y*y-x*x-R*R)*math.Cos(inc)*math.Cos(az) - 3*R*y*math.Sin(inc) + 3*x*y*math.Cos(az)*math.Sin(inc)),
			"Za":  c * ((2*R*R-x*x-y*y)*math.Sin(inc) - 3*R*x*math.Cos(inc)*math.Cos(az) - 3*R*y*math.Cos(inc)*math.Sin(az)),
			"DeltaT": c * ((2*R*R-x*x-y*y)*math.Pow(math.Sin(inc), 2) +
				(2*x*x-y*y-R*R)*math.Pow(math.Cos(inc), 2)*math.Pow(math.Cos(az), 2) +
				(2*y*y-x*x-R*R)*math.Pow(math.Cos(inc), 2)*math.Pow(math.Sin(az), 2) -
				3*x*R*math.Sin(2*inc)*math.Cos(az) +
				3*x*y*math.Pow(math.Cos(inc), 2)*math.Sin(2*az) -
				3*y*R*math.Sin(2*inc)*math.Sin(az)),
		}
		got := map[string]float64{
			"Hax":    f.Hax.At(0, j),
			"Hay":    f.Hay.At(0, j),
			"Za":     f.Za.At(0, j),
			"DeltaT": f.DeltaT.At(0, j),
		}
		for name, w := range want {
			if math.Abs(got[name]-w) > 1e-12*(math.Abs(w)+scale) {
				t.Fatalf("%s at (%g, %g) = %g, want %g", name, x, y, got[name], w)
			}
		}
	}
}
