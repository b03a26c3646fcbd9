package grpcapi

import (
	"context"
	"errors"

	"github.com/Domenick1991/airreserve/internal/domain"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "airreserve"

var kindCodes = map[domain.Kind]codes.Code{
	domain.KindValidation: codes.InvalidArgument,
	domain.KindInventory:  codes.ResourceExhausted,
	domain.KindDuplicate:  codes.AlreadyExists,
	domain.KindState:      codes.FailedPrecondition,
	domain.KindDataGap:    codes.NotFound,
	domain.KindNotFound:   codes.NotFound,
}

// ToStatus converts a service error to a gRPC status error. The reason code
// travels as an ErrorInfo detail.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	kind := domain.KindOf(err)
	code, ok := kindCodes[kind]
	if !ok {
		return status.Error(codes.Internal, "internal error")
	}
	st := status.New(code, err.Error())
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   domain.CodeOf(err),
		Domain:   errorDomain,
		Metadata: map[string]string{"kind": string(kind)},
	})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// ReasonOf extracts the reason code from a status error produced by ToStatus.
func ReasonOf(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}
