package core

import (
	"fmt"
	"math"
)

const (
	// ProfileHalfWidth is the half-length in metres of the default cylinder profile.
	ProfileHalfWidth = 2000.0
	// ProfilePoints is the sample count of the default cylinder profile.
	ProfilePoints = 101
	// MeshPoints is the per-axis sample count of the default sphere mesh.
	MeshPoints = 51
)

// Matrix is a dense row-major 2-D array.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the element at row i, column j.
func (m Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

// Len returns the number of elements.
func (m Matrix) Len() int { return m.Rows * m.Cols }

// SameShape reports whether m and other have identical dimensions.
func (m Matrix) SameShape(other Matrix) bool {
	return m.Rows == other.Rows && m.Cols == other.Cols
}

// Row returns a copy of row i.
func (m Matrix) Row(i int) []float64 {
	out := make([]float64, m.Cols)
	copy(out, m.Data[i*m.Cols:(i+1)*m.Cols])
	return out
}

func (m Matrix) valid() bool {
	return m.Rows >= 0 && m.Cols >= 0 && len(m.Data) == m.Rows*m.Cols
}

// Linspace returns n evenly spaced samples over [start, stop], inclusive of
// both endpoints. A single sample is just start.
func Linspace(start, stop float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: sample count must be >= 1, got %d", ErrInvalidParameter, n)
	}
	if !isFinite(start) || !isFinite(stop) {
		return nil, fmt.Errorf("%w: bounds must be finite, got [%v, %v]", ErrInvalidParameter, start, stop)
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out, nil
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out, nil
}

// ProfileLine returns the default cylinder profile: 101 points over
// [-2000, 2000] metres.
func ProfileLine() []float64 {
	x, _ := Linspace(-ProfileHalfWidth, ProfileHalfWidth, ProfilePoints)
	return x
}

// Meshgrid expands xs and ys into coordinate matrices. Row i holds ys[i] and
// column j holds xs[j], so every (X[i,j], Y[i,j]) pair appears exactly once.
func Meshgrid(xs, ys []float64) (Matrix, Matrix) {
	X := NewMatrix(len(ys), len(xs))
	Y := NewMatrix(len(ys), len(xs))
	for i, y := range ys {
		row := i * len(xs)
		for j, x := range xs {
			X.Data[row+j] = x
			Y.Data[row+j] = y
		}
	}
	return X, Y
}

// SphereMesh returns an n x n mesh over [-extent, extent] on both axes.
func SphereMesh(extent float64, n int) (Matrix, Matrix, error) {
	if !(extent > 0) || math.IsInf(extent, 0) {
		return Matrix{}, Matrix{}, fmt.Errorf("%w: mesh extent must be finite and > 0, got %v", ErrInvalidParameter, extent)
	}
	axis, err := Linspace(-extent, extent, n)
	if err != nil {
		return Matrix{}, Matrix{}, err
	}
	X, Y := Meshgrid(axis, axis)
	return X, Y, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
