package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   codes.Code
		reason string
	}{
		{"validation", domain.Validation("NO_ADULT", "at least one adult required"), codes.InvalidArgument, "NO_ADULT"},
		{"inventory", domain.InsufficientInventory("2 seats left"), codes.ResourceExhausted, "INSUFFICIENT_INVENTORY"},
		{"seat", domain.SeatUnavailable("seat not available"), codes.ResourceExhausted, "SEAT_NOT_AVAILABLE"},
		{"duplicate", domain.DuplicateBooking("already booked"), codes.AlreadyExists, "DUPLICATE_BOOKING"},
		{"state", domain.StateConflict("RESERVATION_EXPIRED", "expired"), codes.FailedPrecondition, "RESERVATION_EXPIRED"},
		{"data gap", domain.DataGap("DURATION_UNKNOWN", "no duration"), codes.NotFound, "DURATION_UNKNOWN"},
		{"not found", domain.NotFound("flight"), codes.NotFound, "NOT_FOUND"},
		{"wrapped", fmt.Errorf("book: %w", domain.StateConflict("FLIGHT_DEPARTED", "departed")), codes.FailedPrecondition, "FLIGHT_DEPARTED"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ToStatus(tc.err)
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, st.Code())
			assert.Equal(t, tc.reason, ReasonOf(err))

			require.Len(t, st.Details(), 1)
			info := st.Details()[0].(*errdetails.ErrorInfo)
			assert.Equal(t, "airreserve", info.GetDomain())
			assert.Equal(t, string(domain.KindOf(tc.err)), info.GetMetadata()["kind"])
		})
	}
}

func TestToStatus_Passthrough(t *testing.T) {
	assert.NoError(t, ToStatus(nil))

	original := status.Error(codes.Unauthenticated, "missing bearer token")
	assert.Equal(t, original, ToStatus(original))

	assert.Equal(t, codes.Canceled, status.Code(ToStatus(context.Canceled)))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(ToStatus(fmt.Errorf("query: %w", context.DeadlineExceeded))))
}

func TestToStatus_HidesInternalErrors(t *testing.T) {
	err := ToStatus(errors.New("pq: password authentication failed"))

	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
	assert.Empty(t, ReasonOf(err))
}
