package forwardsvc

import (
	"context"
	"errors"
	"io"

	"github.com/signalsfoundry/magnetic-anomaly-sim/core"
	"github.com/signalsfoundry/magnetic-anomaly-sim/model"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// MaxResponseBytes is the receive limit Client applies to every call. The
// largest field the server accepts encodes to about 22 MB, well past gRPC's
// 4 MB default.
const MaxResponseBytes = 64 << 20

// Client is a typed client for ForwardModelService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// callOptions puts the receive limit first so callers can still override it.
func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.MaxCallRecvMsgSize(MaxResponseBytes)}, opts...)
}

// Call invokes a unary method with a raw request.
func (c *Client) Call(ctx context.Context, fullMethod string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod, req, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// EvaluateCylinder evaluates the cylinder over x, or over the default
// profile when x is nil.
func (c *Client) EvaluateCylinder(ctx context.Context, in model.ParameterInput, x []float64, opts ...grpc.CallOption) (core.CylinderField, error) {
	out, err := c.Call(ctx, FullMethodEvaluateCylinder, CylinderRequest(in, x), opts...)
	if err != nil {
		return core.CylinderField{}, err
	}
	return CylinderFieldFromStruct(out)
}

// EvaluateSphere evaluates the sphere on the mesh at the angles carried by
// in.
func (c *Client) EvaluateSphere(ctx context.Context, in model.ParameterInput, mesh MeshSpec, opts ...grpc.CallOption) (core.SphereField, error) {
	out, err := c.Call(ctx, FullMethodEvaluateSphere, SphereRequest(in, mesh), opts...)
	if err != nil {
		return core.SphereField{}, err
	}
	return SphereFieldFromStruct(out)
}

// SweepSphere opens the sweep stream and hands each decoded frame to fn.
// An error from fn cancels the stream.
func (c *Client) SweepSphere(ctx context.Context, in model.ParameterInput, mesh MeshSpec, startDeg, endDeg int, fn func(core.SweepFrame) error, opts ...grpc.CallOption) error {
	return c.Sweep(ctx, SweepRequest(in, mesh, startDeg, endDeg), fn, opts...)
}

// Sweep is SweepSphere with a raw request, for callers that set optional
// keys such as interval_ms.
func (c *Client) Sweep(ctx context.Context, req *structpb.Struct, fn func(core.SweepFrame) error, opts ...grpc.CallOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], FullMethodSweepSphere, callOptions(opts)...)
	if err != nil {
		return err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(req); err != nil {
		return err
	}
	if err := x.CloseSend(); err != nil {
		return err
	}

	for {
		msg, err := x.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		frame, err := FrameFromStruct(msg)
		if err != nil {
			return err
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
}
