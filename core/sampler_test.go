package core

import (
	"errors"
	"math"
	"testing"
)

func TestLinspaceIncludesEndpoints(t *testing.T) {
	x, err := Linspace(-2000, 2000, 101)
	if err != nil {
		t.Fatalf("Linspace: %v", err)
	}
	if len(x) != 101 {
		t.Fatalf("len = %d, want 101", len(x))
	}
	if x[0] != -2000 || x[100] != 2000 {
		t.Fatalf("endpoints = %g, %g", x[0], x[100])
	}
	if x[50] != 0 {
		t.Fatalf("midpoint = %g, want 0", x[50])
	}
	for i := 1; i < len(x); i++ {
		if step := x[i] - x[i-1]; math.Abs(step-40) > 1e-9 {
			t.Fatalf("step %d = %g, want 40", i, step)
		}
	}
}

func TestLinspaceEdgeCases(t *testing.T) {
	t.Parallel()

	single, err := Linspace(5, 10, 1)
	if err != nil || len(single) != 1 || single[0] != 5 {
		t.Fatalf("Linspace(5, 10, 1) = %v, %v; want [5]", single, err)
	}

	for _, n := range []int{0, -3} {
		if _, err := Linspace(0, 1, n); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("Linspace n=%d error = %v, want ErrInvalidParameter", n, err)
		}
	}
	if _, err := Linspace(math.NaN(), 1, 3); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("Linspace NaN error = %v, want ErrInvalidParameter", err)
	}
}

func TestProfileLineDefaults(t *testing.T) {
	x := ProfileLine()
	if len(x) != ProfilePoints || x[0] != -ProfileHalfWidth || x[len(x)-1] != ProfileHalfWidth {
		t.Fatalf("ProfileLine() = %d points over [%g, %g]", len(x), x[0], x[len(x)-1])
	}
}

func TestMeshgridEnumeratesEveryPairOnce(t *testing.T) {
	xs := []float64{1, 2, 3}
	ys := []float64{10, 20}
	X, Y := Meshgrid(xs, ys)
	if X.Rows != 2 || X.Cols != 3 || !X.SameShape(Y) {
		t.Fatalf("shape = %dx%d / %dx%d, want 2x3", X.Rows, X.Cols, Y.Rows, Y.Cols)
	}

	seen := make(map[[2]float64]int)
	for i := 0; i < X.Rows; i++ {
		for j := 0; j < X.Cols; j++ {
			if X.At(i, j) != xs[j] || Y.At(i, j) != ys[i] {
				t.Fatalf("(%d,%d) = (%g,%g), want (%g,%g)", i, j, X.At(i, j), Y.At(i, j), xs[j], ys[i])
			}
			seen[[2]float64{X.At(i, j), Y.At(i, j)}]++
		}
	}
	if len(seen) != 6 {
		t.Fatalf("distinct pairs = %d, want 6", len(seen))
	}
	for pair, n := range seen {
		if n != 1 {
			t.Fatalf("pair %v seen %d times", pair, n)
		}
	}
	if row := Y.Row(1); len(row) != 3 || row[0] != 20 {
		t.Fatalf("Y.Row(1) = %v", row)
	}
}

func TestSphereMesh(t *testing.T) {
	X, Y, err := SphereMesh(1000, MeshPoints)
	if err != nil {
		t.Fatalf("SphereMesh: %v", err)
	}
	if X.Rows != 51 || X.Cols != 51 || Y.Len() != 51*51 {
		t.Fatalf("shape = %dx%d, want 51x51", X.Rows, X.Cols)
	}
	if X.At(0, 0) != -1000 || Y.At(50, 50) != 1000 || X.At(25, 25) != 0 {
		t.Fatalf("unexpected corner/centre values")
	}

	for _, extent := range []float64{0, -1, math.Inf(1), math.NaN()} {
		if _, _, err := SphereMesh(extent, 3); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("SphereMesh(%v) error = %v, want ErrInvalidParameter", extent, err)
		}
	}
}
