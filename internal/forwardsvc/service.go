// Package forwardsvc exposes the forward models over gRPC. Messages are
// google.protobuf.Struct values, so the service needs no generated code.
package forwardsvc

import (
	"context"

	"github.com/signalsfoundry/magnetic-anomaly-sim/core"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/engine"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/logging"
	"github.com/signalsfoundry/magnetic-anomaly-sim/timectrl"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Fully-qualified service and method names.
const (
	ServiceName = "magfwd.v1.ForwardModelService"

	FullMethodEvaluateCylinder = "/" + ServiceName + "/EvaluateCylinder"
	FullMethodEvaluateSphere   = "/" + ServiceName + "/EvaluateSphere"
	FullMethodSweepSphere      = "/" + ServiceName + "/SweepSphere"
)

// ForwardModelServer is the server API of ForwardModelService.
type ForwardModelServer interface {
	EvaluateCylinder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EvaluateSphere(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SweepSphere(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
}

// ServiceDesc describes ForwardModelService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ForwardModelServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "EvaluateCylinder", Handler: evaluateCylinderHandler},
		{MethodName: "EvaluateSphere", Handler: evaluateSphereHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "SweepSphere", Handler: sweepSphereHandler, ServerStreams: true},
	},
	Metadata: "magfwd/v1/forward_model.proto",
}

// RegisterForwardModelServer registers srv on s.
func RegisterForwardModelServer(s grpc.ServiceRegistrar, srv ForwardModelServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func evaluateCylinderHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ForwardModelServer).EvaluateCylinder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodEvaluateCylinder}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ForwardModelServer).EvaluateCylinder(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func evaluateSphereHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ForwardModelServer).EvaluateSphere(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodEvaluateSphere}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ForwardModelServer).EvaluateSphere(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func sweepSphereHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ForwardModelServer).SweepSphere(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// Service implements ForwardModelServer on top of an engine.Engine.
type Service struct {
	engine *engine.Engine
	log    logging.Logger
	clock  timectrl.Clock
}

var _ ForwardModelServer = (*Service)(nil)

// NewService constructs a Service. A nil engine gets a default one.
func NewService(e *engine.Engine, log logging.Logger) *Service {
	if log == nil {
		log = logging.Noop()
	}
	if e == nil {
		e = engine.New(log)
	}
	return &Service{engine: e, log: log, clock: timectrl.WallClock()}
}

// EvaluateCylinder evaluates the cylinder profile described by req.
func (s *Service) EvaluateCylinder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	args, err := decodeCylinderRequest(req)
	if err != nil {
		return nil, s.reject(ctx, err)
	}
	field, err := s.engine.Cylinder(ctx, args.params, args.x)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return CylinderFieldToStruct(field), nil
}

// EvaluateSphere evaluates the sphere anomaly described by req.
func (s *Service) EvaluateSphere(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	args, err := decodeSphereRequest(req)
	if err != nil {
		return nil, s.reject(ctx, err)
	}
	field, err := s.engine.Sphere(ctx, args.params, args.inclination, args.azimuth, args.X, args.Y)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return SphereFieldToStruct(field), nil
}

// SweepSphere streams one message per inclination step. Frames are computed
// lazily, so a client that stops reading stops the sweep. A positive
// interval_ms paces the stream.
func (s *Service) SweepSphere(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	args, err := decodeSweepRequest(req)
	if err != nil {
		return s.reject(ctx, err)
	}
	pacer := timectrl.NewPacer(args.interval, timectrl.RealTime, s.clock)
	send := timectrl.Paced(ctx, pacer, func(frame core.SweepFrame) error {
		return stream.Send(FrameToStruct(frame))
	})
	return ToStatusError(s.engine.Sweep(ctx, args.params, args.X, args.Y, args.angles, send))
}

func (s *Service) reject(ctx context.Context, err error) error {
	logging.FromContext(ctx, s.log).Debug(ctx, "rejected request", logging.Err(err))
	return ToStatusError(err)
}
