package forwardsvc

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/signalsfoundry/magnetic-anomaly-sim/core"
	"github.com/signalsfoundry/magnetic-anomaly-sim/model"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request size limits. A request beyond them is rejected before any
// allocation happens. MaxMeshPoints keeps an encoded sphere field within
// MaxResponseBytes.
const (
	MaxProfilePoints = 100_000
	MaxMeshPoints    = 501
	MaxSweepFrames   = 3_601
	MaxFrameInterval = time.Minute
)

// ProfileSpec describes an evenly spaced cylinder profile.
type ProfileSpec struct {
	Min    float64
	Max    float64
	Points int
}

// MeshSpec describes a square sphere mesh over [-Extent, Extent]. A zero
// Extent means the body depth; a zero Points means core.MeshPoints.
type MeshSpec struct {
	Extent float64
	Points int
}

// ---- requests ----

// ParamsToStruct encodes in as the "params" object of a request.
func ParamsToStruct(in model.ParameterInput) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"mu0":                       structpb.NewNumberValue(in.Mu0),
		"volume":                    structpb.NewNumberValue(in.Volume),
		"magnetization":             structpb.NewNumberValue(in.Magnetization),
		"depth":                     structpb.NewNumberValue(in.Depth),
		"effective_inclination_deg": structpb.NewNumberValue(in.EffectiveInclinationDeg),
		"inclination_deg":           structpb.NewNumberValue(in.InclinationDeg),
		"azimuth_deg":               structpb.NewNumberValue(in.AzimuthDeg),
	}}
}

// ParamsFromStruct decodes a "params" object. Missing keys keep the values
// of model.DefaultInput.
func ParamsFromStruct(s *structpb.Struct) (model.ParameterSet, error) {
	in := model.DefaultInput()
	if s != nil {
		for key, dst := range map[string]*float64{
			"mu0":                       &in.Mu0,
			"volume":                    &in.Volume,
			"magnetization":             &in.Magnetization,
			"depth":                     &in.Depth,
			"effective_inclination_deg": &in.EffectiveInclinationDeg,
			"inclination_deg":           &in.InclinationDeg,
			"azimuth_deg":               &in.AzimuthDeg,
		} {
			if err := numberField(s, key, dst); err != nil {
				return model.ParameterSet{}, err
			}
		}
		if err := rejectUnknown(s, "mu0", "volume", "magnetization", "depth",
			"effective_inclination_deg", "inclination_deg", "azimuth_deg"); err != nil {
			return model.ParameterSet{}, err
		}
	}
	return model.NewParameterSet(in)
}

// CylinderRequest builds an EvaluateCylinder request. A nil x asks for the
// default profile.
func CylinderRequest(in model.ParameterInput, x []float64) *structpb.Struct {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"params": structpb.NewStructValue(ParamsToStruct(in)),
	}}
	if x != nil {
		req.Fields["x"] = floatList(x)
	}
	return req
}

// ProfileRequest builds an EvaluateCylinder request over an evenly spaced
// profile.
func ProfileRequest(in model.ParameterInput, profile ProfileSpec) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"params": structpb.NewStructValue(ParamsToStruct(in)),
		"profile": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"min":    structpb.NewNumberValue(profile.Min),
			"max":    structpb.NewNumberValue(profile.Max),
			"points": structpb.NewNumberValue(float64(profile.Points)),
		}}),
	}}
}

// SphereRequest builds an EvaluateSphere request. The field angles are the
// ones carried by in.
func SphereRequest(in model.ParameterInput, mesh MeshSpec) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"params":          structpb.NewStructValue(ParamsToStruct(in)),
		"inclination_deg": structpb.NewNumberValue(in.InclinationDeg),
		"azimuth_deg":     structpb.NewNumberValue(in.AzimuthDeg),
		"mesh":            meshValue(mesh),
	}}
}

// SweepRequest builds a SweepSphere request.
func SweepRequest(in model.ParameterInput, mesh MeshSpec, startDeg, endDeg int) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"params":    structpb.NewStructValue(ParamsToStruct(in)),
		"mesh":      meshValue(mesh),
		"start_deg": structpb.NewNumberValue(float64(startDeg)),
		"end_deg":   structpb.NewNumberValue(float64(endDeg)),
	}}
}

type cylinderArgs struct {
	params model.ParameterSet
	x      []float64
}

func decodeCylinderRequest(req *structpb.Struct) (cylinderArgs, error) {
	if err := rejectUnknown(req, "params", "x", "profile"); err != nil {
		return cylinderArgs{}, err
	}
	p, err := ParamsFromStruct(req.GetFields()["params"].GetStructValue())
	if err != nil {
		return cylinderArgs{}, err
	}

	xv, hasX := req.GetFields()["x"]
	pv, hasProfile := req.GetFields()["profile"]
	switch {
	case hasX && hasProfile:
		return cylinderArgs{}, fmt.Errorf("%w: x and profile are mutually exclusive", ErrInvalidRequest)
	case hasX:
		x, err := floatsFromValue("x", xv)
		if err != nil {
			return cylinderArgs{}, err
		}
		if len(x) > MaxProfilePoints {
			return cylinderArgs{}, fmt.Errorf("%w: %d profile points exceeds %d", ErrInvalidRequest, len(x), MaxProfilePoints)
		}
		return cylinderArgs{params: p, x: x}, nil
	case hasProfile:
		spec := ProfileSpec{Min: -core.ProfileHalfWidth, Max: core.ProfileHalfWidth, Points: core.ProfilePoints}
		s := pv.GetStructValue()
		if s == nil {
			return cylinderArgs{}, fmt.Errorf("%w: profile must be an object", ErrInvalidRequest)
		}
		if err := rejectUnknown(s, "min", "max", "points"); err != nil {
			return cylinderArgs{}, err
		}
		if err := numberField(s, "min", &spec.Min); err != nil {
			return cylinderArgs{}, err
		}
		if err := numberField(s, "max", &spec.Max); err != nil {
			return cylinderArgs{}, err
		}
		if err := intField(s, "points", &spec.Points); err != nil {
			return cylinderArgs{}, err
		}
		if spec.Points > MaxProfilePoints {
			return cylinderArgs{}, fmt.Errorf("%w: %d profile points exceeds %d", ErrInvalidRequest, spec.Points, MaxProfilePoints)
		}
		x, err := core.Linspace(spec.Min, spec.Max, spec.Points)
		if err != nil {
			return cylinderArgs{}, err
		}
		return cylinderArgs{params: p, x: x}, nil
	default:
		return cylinderArgs{params: p, x: core.ProfileLine()}, nil
	}
}

type sphereArgs struct {
	params      model.ParameterSet
	inclination float64
	azimuth     float64
	X, Y        core.Matrix
}

func decodeSphereRequest(req *structpb.Struct) (sphereArgs, error) {
	if err := rejectUnknown(req, "params", "inclination_deg", "azimuth_deg", "mesh"); err != nil {
		return sphereArgs{}, err
	}
	p, err := ParamsFromStruct(req.GetFields()["params"].GetStructValue())
	if err != nil {
		return sphereArgs{}, err
	}
	incDeg, azDeg := p.Input().InclinationDeg, p.Input().AzimuthDeg
	if err := numberField(req, "inclination_deg", &incDeg); err != nil {
		return sphereArgs{}, err
	}
	if err := numberField(req, "azimuth_deg", &azDeg); err != nil {
		return sphereArgs{}, err
	}
	X, Y, err := decodeMesh(req, p)
	if err != nil {
		return sphereArgs{}, err
	}
	return sphereArgs{
		params:      p,
		inclination: model.Radians(incDeg),
		azimuth:     model.Radians(azDeg),
		X:           X,
		Y:           Y,
	}, nil
}

type sweepArgs struct {
	params   model.ParameterSet
	X, Y     core.Matrix
	angles   []int
	interval time.Duration
}

func decodeSweepRequest(req *structpb.Struct) (sweepArgs, error) {
	if err := rejectUnknown(req, "params", "mesh", "start_deg", "end_deg", "interval_ms"); err != nil {
		return sweepArgs{}, err
	}
	p, err := ParamsFromStruct(req.GetFields()["params"].GetStructValue())
	if err != nil {
		return sweepArgs{}, err
	}
	start, end := core.SweepStartDeg, core.SweepEndDeg
	if err := intField(req, "start_deg", &start); err != nil {
		return sweepArgs{}, err
	}
	if err := intField(req, "end_deg", &end); err != nil {
		return sweepArgs{}, err
	}
	if n := int64(end) - int64(start) + 1; n > MaxSweepFrames {
		return sweepArgs{}, fmt.Errorf("%w: %d sweep frames exceeds %d", ErrInvalidRequest, n, MaxSweepFrames)
	}
	angles, err := core.DegreeRange(start, end)
	if err != nil {
		return sweepArgs{}, err
	}
	X, Y, err := decodeMesh(req, p)
	if err != nil {
		return sweepArgs{}, err
	}
	var intervalMS float64
	if err := numberField(req, "interval_ms", &intervalMS); err != nil {
		return sweepArgs{}, err
	}
	interval := time.Duration(intervalMS * float64(time.Millisecond))
	if intervalMS < 0 || interval > MaxFrameInterval {
		return sweepArgs{}, fmt.Errorf("%w: interval_ms must be within [0, %d], got %v", ErrInvalidRequest, MaxFrameInterval.Milliseconds(), intervalMS)
	}
	return sweepArgs{params: p, X: X, Y: Y, angles: angles, interval: interval}, nil
}

func decodeMesh(req *structpb.Struct, p model.ParameterSet) (core.Matrix, core.Matrix, error) {
	spec := MeshSpec{}
	if v, ok := req.GetFields()["mesh"]; ok {
		s := v.GetStructValue()
		if s == nil {
			return core.Matrix{}, core.Matrix{}, fmt.Errorf("%w: mesh must be an object", ErrInvalidRequest)
		}
		if err := rejectUnknown(s, "extent", "points"); err != nil {
			return core.Matrix{}, core.Matrix{}, err
		}
		if err := numberField(s, "extent", &spec.Extent); err != nil {
			return core.Matrix{}, core.Matrix{}, err
		}
		if err := intField(s, "points", &spec.Points); err != nil {
			return core.Matrix{}, core.Matrix{}, err
		}
	}
	if spec.Extent == 0 {
		spec.Extent = p.Depth()
	}
	if spec.Points == 0 {
		spec.Points = core.MeshPoints
	}
	if spec.Points > MaxMeshPoints {
		return core.Matrix{}, core.Matrix{}, fmt.Errorf("%w: %d mesh points per axis exceeds %d", ErrInvalidRequest, spec.Points, MaxMeshPoints)
	}
	return core.SphereMesh(spec.Extent, spec.Points)
}

// ---- responses ----

// CylinderFieldToStruct encodes f as an EvaluateCylinder response.
func CylinderFieldToStruct(f core.CylinderField) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"x":       floatList(f.X),
		"z_a":     floatList(f.Za),
		"h_a":     floatList(f.Ha),
		"delta_t": floatList(f.DeltaT),
	}}
}

// CylinderFieldFromStruct decodes an EvaluateCylinder response.
func CylinderFieldFromStruct(s *structpb.Struct) (core.CylinderField, error) {
	var f core.CylinderField
	for key, dst := range map[string]*[]float64{"x": &f.X, "z_a": &f.Za, "h_a": &f.Ha, "delta_t": &f.DeltaT} {
		v, err := floatsFromValue(key, s.GetFields()[key])
		if err != nil {
			return core.CylinderField{}, err
		}
		*dst = v
	}
	n := len(f.X)
	if len(f.Za) != n || len(f.Ha) != n || len(f.DeltaT) != n {
		return core.CylinderField{}, fmt.Errorf("%w: cylinder components differ in length", ErrInvalidRequest)
	}
	return f, nil
}

// SphereFieldToStruct encodes f with flat row-major component arrays.
func SphereFieldToStruct(f core.SphereField) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"rows":    structpb.NewNumberValue(float64(f.Rows())),
		"cols":    structpb.NewNumberValue(float64(f.Cols())),
		"x":       floatList(f.X.Data),
		"y":       floatList(f.Y.Data),
		"h_ax":    floatList(f.Hax.Data),
		"h_ay":    floatList(f.Hay.Data),
		"z_a":     floatList(f.Za.Data),
		"delta_t": floatList(f.DeltaT.Data),
	}}
}

// SphereFieldFromStruct decodes a response produced by SphereFieldToStruct.
func SphereFieldFromStruct(s *structpb.Struct) (core.SphereField, error) {
	var rows, cols int
	if err := intField(s, "rows", &rows); err != nil {
		return core.SphereField{}, err
	}
	if err := intField(s, "cols", &cols); err != nil {
		return core.SphereField{}, err
	}
	var f core.SphereField
	for key, dst := range map[string]*core.Matrix{
		"x": &f.X, "y": &f.Y, "h_ax": &f.Hax, "h_ay": &f.Hay, "z_a": &f.Za, "delta_t": &f.DeltaT,
	} {
		data, err := floatsFromValue(key, s.GetFields()[key])
		if err != nil {
			return core.SphereField{}, err
		}
		if len(data) != rows*cols {
			return core.SphereField{}, fmt.Errorf("%w: %s has %d values, want %dx%d", ErrInvalidRequest, key, len(data), rows, cols)
		}
		*dst = core.Matrix{Rows: rows, Cols: cols, Data: data}
	}
	return f, nil
}

// FrameToStruct encodes one sweep frame as {angle_deg, field}.
func FrameToStruct(frame core.SweepFrame) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"angle_deg": structpb.NewNumberValue(float64(frame.AngleDeg)),
		"field":     structpb.NewStructValue(SphereFieldToStruct(frame.Field)),
	}}
}

// FrameFromStruct decodes a message produced by FrameToStruct.
func FrameFromStruct(s *structpb.Struct) (core.SweepFrame, error) {
	var frame core.SweepFrame
	if err := intField(s, "angle_deg", &frame.AngleDeg); err != nil {
		return core.SweepFrame{}, err
	}
	field, err := SphereFieldFromStruct(s.GetFields()["field"].GetStructValue())
	if err != nil {
		return core.SweepFrame{}, err
	}
	frame.Field = field
	return frame, nil
}

// ---- helpers ----

func meshValue(mesh MeshSpec) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"extent": structpb.NewNumberValue(mesh.Extent),
		"points": structpb.NewNumberValue(float64(mesh.Points)),
	}})
}

func floatList(values []float64) *structpb.Value {
	list := make([]*structpb.Value, len(values))
	for i, v := range values {
		list[i] = structpb.NewNumberValue(v)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: list})
}

func floatsFromValue(key string, v *structpb.Value) ([]float64, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: %s must be a list of numbers", ErrInvalidRequest, key)
	}
	out := make([]float64, len(list.GetValues()))
	for i, item := range list.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not a number", ErrInvalidRequest, key, i)
		}
		out[i] = n.NumberValue
	}
	return out, nil
}

// numberField sets *dst when key is present. A present non-number is an
// error.
func numberField(s *structpb.Struct, key string, dst *float64) error {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return fmt.Errorf("%w: %s must be a number", ErrInvalidRequest, key)
	}
	*dst = n.NumberValue
	return nil
}

func intField(s *structpb.Struct, key string, dst *int) error {
	f := float64(*dst)
	if err := numberField(s, key, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidRequest, key, f)
	}
	*dst = int(f)
	return nil
}

func rejectUnknown(s *structpb.Struct, known ...string) error {
	for key := range s.GetFields() {
		if !slices.Contains(known, key) {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidRequest, key)
		}
	}
	return nil
}
