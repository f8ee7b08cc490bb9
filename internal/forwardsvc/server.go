package forwardsvc

import (
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/logging"
	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// NewServer builds a grpc.Server with the otelgrpc stats handler, request-ID,
// tracing and (when collector is non-nil) metrics interceptors, and svc
// registered.
func NewServer(svc ForwardModelServer, log logging.Logger, collector *observability.ForwardCollector, opts ...grpc.ServerOption) *grpc.Server {
	unary := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(log),
		TracingUnaryServerInterceptor(),
	}
	stream := []grpc.StreamServerInterceptor{
		RequestIDStreamServerInterceptor(log),
		TracingStreamServerInterceptor(),
	}
	if collector != nil {
		unary = append(unary, collector.UnaryServerInterceptor())
		stream = append(stream, collector.StreamServerInterceptor())
	}

	serverOpts := append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	}, opts...)

	server := grpc.NewServer(serverOpts...)
	RegisterForwardModelServer(server, svc)
	return server
}
