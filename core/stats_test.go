package core

import "testing"

func TestSummarize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []float64
		want   ComponentStats
	}{
		{name: "empty", values: nil, want: ComponentStats{ArgMin: -1, ArgMax: -1}},
		{name: "single", values: []float64{3}, want: ComponentStats{Min: 3, Max: 3, PeakAbs: 3}},
		{name: "negative peak", values: []float64{1, -5, 2, 4}, want: ComponentStats{Min: -5, Max: 4, ArgMin: 1, ArgMax: 3, PeakAbs: 5}},
		{name: "ties keep first", values: []float64{2, 7, 7, 2}, want: ComponentStats{Min: 2, Max: 7, ArgMin: 0, ArgMax: 1, PeakAbs: 7}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Summarize(tc.values); got != tc.want {
				t.Fatalf("Summarize(%v) = %+v, want %+v", tc.values, got, tc.want)
			}
		})
	}
}
