package core

import "math"

// ComponentStats summarises one field component.
type ComponentStats struct {
	Min     float64
	Max     float64
	ArgMin  int // index of Min, -1 when empty
	ArgMax  int // index of Max, -1 when empty
	PeakAbs float64
}

// Summarize returns the extrema of values. Ties keep the first index.
func Summarize(values []float64) ComponentStats {
	if len(values) == 0 {
		return ComponentStats{ArgMin: -1, ArgMax: -1}
	}
	s := ComponentStats{Min: values[0], Max: values[0]}
	for i, v := range values[1:] {
		if v < s.Min {
			s.Min, s.ArgMin = v, i+1
		}
		if v > s.Max {
			s.Max, s.ArgMax = v, i+1
		}
	}
	s.PeakAbs = math.Max(math.Abs(s.Min), math.Abs(s.Max))
	return s
}
