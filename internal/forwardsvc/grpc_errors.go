package forwardsvc

import (
	"context"
	"errors"

	"github.com/signalsfoundry/magnetic-anomaly-sim/core"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrInvalidRequest marks a request that is malformed before any parameter
// validation runs: wrong value kinds, unknown keys, oversized grids.
var ErrInvalidRequest = errors.New("invalid request")

// ToStatusError maps forward-model errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, core.ErrInvalidParameter):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, core.ErrDomain):
		return status.Error(codes.OutOfRange, err.Error())

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
