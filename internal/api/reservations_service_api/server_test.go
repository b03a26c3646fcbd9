package reservations_service_api

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/Domenick1991/airreserve/internal/api/grpcapi"
	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/middleware"
	"github.com/Domenick1991/airreserve/internal/service/reservations"
	"github.com/Domenick1991/airreserve/internal/service/seatchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const secret = "test-secret"

type MockReservationUseCase struct {
	mock.Mock
}

func (m *MockReservationUseCase) CreateReservation(ctx context.Context, input reservations.CreateReservationInput) (*domain.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) AddSegment(ctx context.Context, input reservations.AddSegmentInput) (*reservations.SegmentResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservations.SegmentResult), args.Error(1)
}

func (m *MockReservationUseCase) Book(ctx context.Context, input reservations.BookInput) (*reservations.Details, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservations.Details), args.Error(1)
}

func (m *MockReservationUseCase) MarkPaid(ctx context.Context, reservationID, amountCents int64) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) Cancel(ctx context.Context, reservationID int64) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) GetReservation(ctx context.Context, reservationID int64) (*reservations.Details, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservations.Details), args.Error(1)
}

func (m *MockReservationUseCase) GetForUser(ctx context.Context, reservationID int64, userID string) (*reservations.Details, error) {
	args := m.Called(ctx, reservationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservations.Details), args.Error(1)
}

func (m *MockReservationUseCase) ExpireReservation(ctx context.Context, reservationID int64) (bool, error) {
	args := m.Called(ctx, reservationID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationUseCase) ExpireReservations(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int64), args.Error(1)
}

type MockSeatChangeUseCase struct {
	mock.Mock
}

func (m *MockSeatChangeUseCase) CanChangeSeat(ctx context.Context, req seatchange.Request) (seatchange.Decision, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(seatchange.Decision), args.Error(1)
}

func (m *MockSeatChangeUseCase) ChangeSeat(ctx context.Context, req seatchange.Request) (*seatchange.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seatchange.Result), args.Error(1)
}

// startServer serves the reservations service over an in-memory listener
// behind the auth interceptor.
func startServer(t *testing.T, res *MockReservationUseCase, seats *MockSeatChangeUseCase) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcapi.AuthInterceptor(secret)))
	Register(srv, NewServer(res, seats))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func asUser(t *testing.T, userID string) context.Context {
	t.Helper()
	token, err := middleware.IssueToken(secret, userID, time.Hour)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestServer_RequiresToken(t *testing.T) {
	res := &MockReservationUseCase{}
	conn := startServer(t, res, &MockSeatChangeUseCase{})

	var out domain.Reservation
	err := grpcapi.Invoke(context.Background(), conn, ServiceName, "CreateReservation",
		&reservations.CreateReservationInput{FlightID: 1}, &out)

	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	res.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
}

func TestServer_RejectsForeignToken(t *testing.T) {
	conn := startServer(t, &MockReservationUseCase{}, &MockSeatChangeUseCase{})

	token, err := middleware.IssueToken("other-secret", "user-1", time.Hour)
	require.NoError(t, err)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)

	var out reservations.Details
	err = grpcapi.Invoke(ctx, conn, ServiceName, "GetReservation", &ReservationRequest{ReservationID: 1}, &out)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_CreateReservation(t *testing.T) {
	res := &MockReservationUseCase{}
	conn := startServer(t, res, &MockSeatChangeUseCase{})

	expected := reservations.CreateReservationInput{UserID: "user-1", FlightID: 1, Class: domain.ClassSecond, PassengerCount: 2}
	res.On("CreateReservation", mock.Anything, expected).
		Return(&domain.Reservation{ID: 10, Code: "c0de", Status: domain.ReservationActive, TotalPriceCents: 60000}, nil)

	var out domain.Reservation
	err := grpcapi.Invoke(asUser(t, "user-1"), conn, ServiceName, "CreateReservation",
		&reservations.CreateReservationInput{UserID: "spoofed", FlightID: 1, Class: domain.ClassSecond, PassengerCount: 2}, &out)

	require.NoError(t, err)
	assert.Equal(t, int64(10), out.ID)
	assert.Equal(t, domain.ReservationActive, out.Status)
	res.AssertExpectations(t)
}

func TestServer_ConfirmPayment_Expired(t *testing.T) {
	res := &MockReservationUseCase{}
	conn := startServer(t, res, &MockSeatChangeUseCase{})

	res.On("GetForUser", mock.Anything, int64(5), "user-1").Return(&reservations.Details{}, nil)
	res.On("MarkPaid", mock.Anything, int64(5), int64(60000)).
		Return(nil, domain.StateConflict("RESERVATION_EXPIRED", "reservation c0de expired"))

	var out domain.Reservation
	err := grpcapi.Invoke(asUser(t, "user-1"), conn, ServiceName, "ConfirmPayment",
		&PaymentRequest{ReservationID: 5, AmountCents: 60000}, &out)

	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, "RESERVATION_EXPIRED", grpcapi.ReasonOf(err))
}

func TestServer_CancelReservation_NotOwner(t *testing.T) {
	res := &MockReservationUseCase{}
	conn := startServer(t, res, &MockSeatChangeUseCase{})

	res.On("GetForUser", mock.Anything, int64(5), "user-2").Return(nil, domain.NotFound("reservation"))

	var out domain.Reservation
	err := grpcapi.Invoke(asUser(t, "user-2"), conn, ServiceName, "CancelReservation", &ReservationRequest{ReservationID: 5}, &out)

	assert.Equal(t, codes.NotFound, status.Code(err))
	res.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestServer_InternalError(t *testing.T) {
	res := &MockReservationUseCase{}
	conn := startServer(t, res, &MockSeatChangeUseCase{})

	res.On("GetForUser", mock.Anything, int64(5), "user-1").Return(nil, errors.New("conn reset by peer"))

	var out reservations.Details
	err := grpcapi.Invoke(asUser(t, "user-1"), conn, ServiceName, "GetReservation", &ReservationRequest{ReservationID: 5}, &out)

	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
}

func TestServer_CanChangeSeat(t *testing.T) {
	seats := &MockSeatChangeUseCase{}
	conn := startServer(t, &MockReservationUseCase{}, seats)

	seats.On("CanChangeSeat", mock.Anything, seatchange.Request{UserID: "user-1", SegmentID: 8, NewSeatID: 3}).
		Return(seatchange.Decision{Allowed: false, Code: "DIFFERENT_CLASS", Reason: "different class"}, nil)

	var out seatchange.Decision
	err := grpcapi.Invoke(asUser(t, "user-1"), conn, ServiceName, "CanChangeSeat",
		&seatchange.Request{SegmentID: 8, NewSeatID: 3}, &out)

	require.NoError(t, err)
	assert.Equal(t, seatchange.Decision{Allowed: false, Code: "DIFFERENT_CLASS", Reason: "different class"}, out)
}

func TestServer_ChangeSeat_Unavailable(t *testing.T) {
	seats := &MockSeatChangeUseCase{}
	conn := startServer(t, &MockReservationUseCase{}, seats)

	seats.On("ChangeSeat", mock.Anything, mock.Anything).Return(nil, domain.SeatUnavailable("seat not available"))

	var out seatchange.Result
	err := grpcapi.Invoke(asUser(t, "user-1"), conn, ServiceName, "ChangeSeat", &seatchange.Request{SegmentID: 8, NewSeatID: 9}, &out)

	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
	assert.Equal(t, "SEAT_NOT_AVAILABLE", grpcapi.ReasonOf(err))
}
