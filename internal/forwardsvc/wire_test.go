package forwardsvc

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/signalsfoundry/magnetic-anomaly-sim/core"
	"github.com/signalsfoundry/magnetic-anomaly-sim/model"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestParamsFromStructDefaults(t *testing.T) {
	t.Parallel()

	p, err := ParamsFromStruct(nil)
	if err != nil {
		t.Fatalf("ParamsFromStruct(nil): %v", err)
	}
	if diff := cmp.Diff(model.DefaultInput(), p.Input()); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}

	partial, err := structpb.NewStruct(map[string]any{"depth": 250.0, "azimuth_deg": 30.0})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	p, err = ParamsFromStruct(partial)
	if err != nil {
		t.Fatalf("ParamsFromStruct: %v", err)
	}
	want := model.DefaultInput()
	want.Depth = 250
	want.AzimuthDeg = 30
	if diff := cmp.Diff(want, p.Input()); diff != "" {
		t.Fatalf("partial overlay (-want +got):\n%s", diff)
	}
}

func TestParamsFromStructErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields map[string]any
		want   error
	}{
		{"string value", map[string]any{"depth": "deep"}, ErrInvalidRequest},
		{"unknown key", map[string]any{"susceptibility": 0.01}, ErrInvalidRequest},
		{"negative depth", map[string]any{"depth": -1.0}, core.ErrInvalidParameter},
		{"zero volume", map[string]any{"volume": 0.0}, core.ErrInvalidParameter},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, err := structpb.NewStruct(tc.fields)
			if err != nil {
				t.Fatalf("NewStruct: %v", err)
			}
			if _, err := ParamsFromStruct(s); !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDecodeCylinderRequestGrids(t *testing.T) {
	t.Parallel()

	args, err := decodeCylinderRequest(CylinderRequest(model.DefaultInput(), nil))
	if err != nil {
		t.Fatalf("default grid: %v", err)
	}
	if len(args.x) != core.ProfilePoints {
		t.Fatalf("default grid has %d points, want %d", len(args.x), core.ProfilePoints)
	}

	both := CylinderRequest(model.DefaultInput(), []float64{1, 2})
	both.Fields["profile"] = ProfileRequest(model.DefaultInput(), ProfileSpec{Min: 0, Max: 1, Points: 2}).Fields["profile"]
	if _, err := decodeCylinderRequest(both); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("x with profile: error = %v, want ErrInvalidRequest", err)
	}

	mixed := CylinderRequest(model.DefaultInput(), nil)
	mixed.Fields["x"] = structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{
		structpb.NewNumberValue(1), structpb.NewBoolValue(true),
	}})
	if _, err := decodeCylinderRequest(mixed); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("non-numeric x: error = %v, want ErrInvalidRequest", err)
	}

	if _, err := decodeCylinderRequest(ProfileRequest(model.DefaultInput(), ProfileSpec{Min: 0, Max: 1, Points: MaxProfilePoints + 1})); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("oversized profile: error = %v, want ErrInvalidRequest", err)
	}
}

func TestDecodeSweepRequestDefaults(t *testing.T) {
	t.Parallel()

	req := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	args, err := decodeSweepRequest(req)
	if err != nil {
		t.Fatalf("decodeSweepRequest: %v", err)
	}
	if len(args.angles) != 91 || args.angles[0] != 0 || args.angles[90] != 90 {
		t.Fatalf("default angles = %v", args.angles)
	}
	if args.X.Rows != core.MeshPoints || args.X.Cols != core.MeshPoints {
		t.Fatalf("default mesh = %dx%d", args.X.Rows, args.X.Cols)
	}
	if args.X.At(0, 0) != -model.DefaultInput().Depth {
		t.Fatalf("default mesh extent = %v, want depth", args.X.At(0, 0))
	}
	if args.interval != 0 {
		t.Fatalf("default interval = %s, want 0", args.interval)
	}
}

func TestDecodeSweepRequestFrameLimit(t *testing.T) {
	t.Parallel()

	args, err := decodeSweepRequest(SweepRequest(model.DefaultInput(), MeshSpec{Points: 3}, 0, MaxSweepFrames-1))
	if err != nil {
		t.Fatalf("sweep at the frame limit: %v", err)
	}
	if len(args.angles) != MaxSweepFrames {
		t.Fatalf("got %d angles, want %d", len(args.angles), MaxSweepFrames)
	}

	tests := []struct {
		name       string
		start, end int
	}{
		{"one past the limit", 0, MaxSweepFrames},
		{"large span", 0, 20_000_000},
		{"full int32 span", -math.MaxInt32, math.MaxInt32},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := SweepRequest(model.DefaultInput(), MeshSpec{Points: MaxMeshPoints}, tc.start, tc.end)
			if _, err := decodeSweepRequest(req); !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestDecodeSweepRequestInterval(t *testing.T) {
	t.Parallel()

	req := SweepRequest(model.DefaultInput(), MeshSpec{Points: 3}, 0, 2)
	req.Fields["interval_ms"] = structpb.NewNumberValue(50)
	args, err := decodeSweepRequest(req)
	if err != nil {
		t.Fatalf("decodeSweepRequest: %v", err)
	}
	if args.interval != 50*time.Millisecond {
		t.Fatalf("interval = %s, want 50ms", args.interval)
	}

	for _, ms := range []float64{-1, float64(MaxFrameInterval.Milliseconds()) + 1} {
		req.Fields["interval_ms"] = structpb.NewNumberValue(ms)
		if _, err := decodeSweepRequest(req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("interval_ms=%v: error = %v, want ErrInvalidRequest", ms, err)
		}
	}
}

func TestSphereFieldFromStructRejectsShortComponents(t *testing.T) {
	t.Parallel()

	X, Y, err := core.SphereMesh(10, 3)
	if err != nil {
		t.Fatalf("SphereMesh: %v", err)
	}
	f, err := core.EvaluateSphereAt(model.MustParameterSet(model.DefaultInput()), X, Y)
	if err != nil {
		t.Fatalf("EvaluateSphereAt: %v", err)
	}
	s := SphereFieldToStruct(f)
	s.Fields["z_a"] = floatList([]float64{1, 2})
	if _, err := SphereFieldFromStruct(s); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest", err)
	}
}
