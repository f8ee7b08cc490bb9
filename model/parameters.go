package model

import (
	"errors"
	"fmt"
	"math"
)

// Mu0 is the free-space permeability in H/m.
const Mu0 = 4 * math.Pi * 1e-7

// ErrInvalidParameter indicates a non-finite or non-physical input.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParameterInput carries the raw scalars a ParameterSet is built from.
// Angles are in degrees.
type ParameterInput struct {
	Mu0                     float64
	Volume                  float64
	Magnetization           float64
	Depth                   float64
	EffectiveInclinationDeg float64
	InclinationDeg          float64
	AzimuthDeg              float64
}

// DefaultInput returns the reference body used throughout the repo: a
// 1000 m³ body magnetised at 45000 A/m, buried 1000 m deep under a vertical
// inducing field.
func DefaultInput() ParameterInput {
	return ParameterInput{
		Mu0:                     Mu0,
		Volume:                  1000,
		Magnetization:           45000,
		Depth:                   1000,
		EffectiveInclinationDeg: 90,
		InclinationDeg:          90,
		AzimuthDeg:              0,
	}
}

// ParameterSet is the validated, immutable input of one forward-model run.
// The zero value is not valid; use NewParameterSet.
type ParameterSet struct {
	mu0           float64
	volume        float64
	magnetization float64
	moment        float64
	depth         float64
	effInc        float64
	inc           float64
	azimuth       float64
	input         ParameterInput
}

// NewParameterSet validates in and derives the magnetic moment.
func NewParameterSet(in ParameterInput) (ParameterSet, error) {
	checks := []struct {
		name  string
		value float64
	}{
		{"mu0", in.Mu0},
		{"volume", in.Volume},
		{"magnetization", in.Magnetization},
		{"depth", in.Depth},
		{"effective_inclination", in.EffectiveInclinationDeg},
		{"inclination", in.InclinationDeg},
		{"azimuth", in.AzimuthDeg},
	}
	for _, c := range checks {
		if !isFinite(c.value) {
			return ParameterSet{}, fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameter, c.name, c.value)
		}
	}
	if in.Mu0 <= 0 {
		return ParameterSet{}, fmt.Errorf("%w: mu0 must be > 0, got %g", ErrInvalidParameter, in.Mu0)
	}
	if in.Volume <= 0 {
		return ParameterSet{}, fmt.Errorf("%w: volume must be > 0, got %g", ErrInvalidParameter, in.Volume)
	}
	if in.Depth <= 0 {
		return ParameterSet{}, fmt.Errorf("%w: depth must be > 0, got %g", ErrInvalidParameter, in.Depth)
	}

	moment := in.Magnetization * in.Volume
	if !isFinite(moment) {
		return ParameterSet{}, fmt.Errorf("%w: magnetic moment overflows (%g * %g)", ErrInvalidParameter, in.Magnetization, in.Volume)
	}

	return ParameterSet{
		mu0:           in.Mu0,
		volume:        in.Volume,
		magnetization: in.Magnetization,
		moment:        moment,
		depth:         in.Depth,
		effInc:        Radians(in.EffectiveInclinationDeg),
		inc:           Radians(in.InclinationDeg),
		azimuth:       Radians(in.AzimuthDeg),
		input:         in,
	}, nil
}

// MustParameterSet is like NewParameterSet but panics on invalid input.
// It is intended for package-level defaults and tests.
func MustParameterSet(in ParameterInput) ParameterSet {
	p, err := NewParameterSet(in)
	if err != nil {
		panic(err)
	}
	return p
}

func (p ParameterSet) Mu0() float64            { return p.mu0 }
func (p ParameterSet) Volume() float64         { return p.volume }
func (p ParameterSet) Magnetization() float64  { return p.magnetization }
func (p ParameterSet) MagneticMoment() float64 { return p.moment }
func (p ParameterSet) Depth() float64          { return p.depth }

// EffectiveInclination is i_s in radians, used by the 2-D cylinder profile.
func (p ParameterSet) EffectiveInclination() float64 { return p.effInc }

// Inclination is the true magnetisation inclination I in radians.
func (p ParameterSet) Inclination() float64 { return p.inc }

// Azimuth is A' in radians, the profile azimuth relative to magnetic north.
func (p ParameterSet) Azimuth() float64 { return p.azimuth }

// Input returns the raw input that reproduces p.
func (p ParameterSet) Input() ParameterInput { return p.input }

// WithInclination returns a copy of p with the inclination set to deg degrees.
func (p ParameterSet) WithInclination(deg float64) (ParameterSet, error) {
	if !isFinite(deg) {
		return ParameterSet{}, fmt.Errorf("%w: inclination must be finite, got %v", ErrInvalidParameter, deg)
	}
	p.inc = Radians(deg)
	p.input.InclinationDeg = deg
	return p, nil
}

// WithAzimuth returns a copy of p with the azimuth set to deg degrees.
func (p ParameterSet) WithAzimuth(deg float64) (ParameterSet, error) {
	if !isFinite(deg) {
		return ParameterSet{}, fmt.Errorf("%w: azimuth must be finite, got %v", ErrInvalidParameter, deg)
	}
	p.azimuth = Radians(deg)
	p.input.AzimuthDeg = deg
	return p, nil
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180.0 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
