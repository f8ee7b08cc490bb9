package core

import "math"

// Vec3 is a vector in the survey frame: X along the profile, Y across it,
// Z positive down.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Scale returns v multiplied by k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// FieldDirection returns the unit vector of a field with the given
// inclination and azimuth in radians.
func FieldDirection(inclination, azimuth float64) Vec3 {
	sinI, cosI := math.Sincos(inclination)
	sinA, cosA := math.Sincos(azimuth)
	return Vec3{X: cosI * cosA, Y: cosI * sinA, Z: sinI}
}

// VectorAt returns the anomaly vector (Hax, Hay, Za) at mesh cell (i, j).
func (f SphereField) VectorAt(i, j int) Vec3 {
	return Vec3{X: f.Hax.At(i, j), Y: f.Hay.At(i, j), Z: f.Za.At(i, j)}
}
