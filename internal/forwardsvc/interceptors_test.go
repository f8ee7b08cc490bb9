package forwardsvc

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/signalsfoundry/magnetic-anomaly-sim/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeServerStream) Context() context.Context { return f.ctx }

func TestRequestIDUnaryUsesInboundMetadata(t *testing.T) {
	t.Parallel()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(requestIDMetadataKey, "req-42"))
	info := &grpc.UnaryServerInfo{FullMethod: FullMethodEvaluateCylinder}

	var buf bytes.Buffer
	base := logging.New(logging.Config{Format: "json", Writer: &buf})

	var gotID string
	_, err := RequestIDUnaryServerInterceptor(base)(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		gotID = logging.RequestIDFromContext(ctx)
		logging.FromContext(ctx, nil).Info(ctx, "handled")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if gotID != "req-42" {
		t.Fatalf("request id = %q, want req-42", gotID)
	}
	if !strings.Contains(buf.String(), `"request_id":"req-42"`) || !strings.Contains(buf.String(), FullMethodEvaluateCylinder) {
		t.Fatalf("request logger not annotated: %s", buf.String())
	}
}

func TestRequestIDUnaryGeneratesID(t *testing.T) {
	t.Parallel()

	info := &grpc.UnaryServerInfo{FullMethod: FullMethodEvaluateSphere}
	var gotID string
	_, _ = RequestIDUnaryServerInterceptor(logging.Noop())(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		gotID = logging.RequestIDFromContext(ctx)
		return nil, nil
	})
	if gotID == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestRequestIDStreamWrapsContext(t *testing.T) {
	t.Parallel()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(requestIDMetadataKey, "stream-7"))
	info := &grpc.StreamServerInfo{FullMethod: FullMethodSweepSphere, IsServerStream: true}

	var gotID string
	err := RequestIDStreamServerInterceptor(nil)(nil, &fakeServerStream{ctx: ctx}, info, func(srv interface{}, ss grpc.ServerStream) error {
		gotID = logging.RequestIDFromContext(ss.Context())
		return nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if gotID != "stream-7" {
		t.Fatalf("request id = %q, want stream-7", gotID)
	}
}

func TestTracingStreamInterceptorPassesContext(t *testing.T) {
	t.Parallel()

	ctx := logging.ContextWithRequestID(context.Background(), "trace-me")
	info := &grpc.StreamServerInfo{FullMethod: FullMethodSweepSphere, IsServerStream: true}

	var gotID string
	err := TracingStreamServerInterceptor()(nil, &fakeServerStream{ctx: ctx}, info, func(srv interface{}, ss grpc.ServerStream) error {
		gotID = logging.RequestIDFromContext(ss.Context())
		return nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if gotID != "trace-me" {
		t.Fatalf("request id lost through tracing interceptor: %q", gotID)
	}
}
