package reservations_service_api

import (
	"context"

	"github.com/Domenick1991/airreserve/internal/api/grpcapi"
	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/service/reservations"
	"github.com/Domenick1991/airreserve/internal/service/seatchange"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "airreserve.reservations.v1.ReservationsService"

type ReservationsServer interface {
	CreateReservation(ctx context.Context, req *reservations.CreateReservationInput) (*domain.Reservation, error)
	AddSegment(ctx context.Context, req *reservations.AddSegmentInput) (*reservations.SegmentResult, error)
	Book(ctx context.Context, req *reservations.BookInput) (*reservations.Details, error)
	ConfirmPayment(ctx context.Context, req *PaymentRequest) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, req *ReservationRequest) (*domain.Reservation, error)
	GetReservation(ctx context.Context, req *ReservationRequest) (*reservations.Details, error)
	CanChangeSeat(ctx context.Context, req *seatchange.Request) (*seatchange.Decision, error)
	ChangeSeat(ctx context.Context, req *seatchange.Request) (*seatchange.Result, error)
}

type ReservationRequest struct {
	ReservationID int64 `json:"reservation_id"`
}

type PaymentRequest struct {
	ReservationID int64  `json:"reservation_id"`
	AmountCents   int64  `json:"amount_cents"`
	PaymentRef    string `json:"payment_ref"`
}

// Server exposes the reservation lifecycle over gRPC. Every call acts for the
// user authenticated by grpcapi.AuthInterceptor.
type Server struct {
	reservations reservations.ReservationUseCase
	seats        seatchange.SeatChangeUseCase
}

func NewServer(reservations reservations.ReservationUseCase, seats seatchange.SeatChangeUseCase) *Server {
	return &Server{reservations: reservations, seats: seats}
}

var _ ReservationsServer = (*Server)(nil)

func (s *Server) CreateReservation(ctx context.Context, req *reservations.CreateReservationInput) (*domain.Reservation, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	input := *req
	input.UserID = userID
	return s.reservations.CreateReservation(ctx, input)
}

func (s *Server) AddSegment(ctx context.Context, req *reservations.AddSegmentInput) (*reservations.SegmentResult, error) {
	if err := s.authorize(ctx, req.ReservationID); err != nil {
		return nil, err
	}
	return s.reservations.AddSegment(ctx, *req)
}

func (s *Server) Book(ctx context.Context, req *reservations.BookInput) (*reservations.Details, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	input := *req
	input.UserID = userID
	return s.reservations.Book(ctx, input)
}

func (s *Server) ConfirmPayment(ctx context.Context, req *PaymentRequest) (*domain.Reservation, error) {
	if err := s.authorize(ctx, req.ReservationID); err != nil {
		return nil, err
	}
	return s.reservations.MarkPaid(ctx, req.ReservationID, req.AmountCents)
}

func (s *Server) CancelReservation(ctx context.Context, req *ReservationRequest) (*domain.Reservation, error) {
	if err := s.authorize(ctx, req.ReservationID); err != nil {
		return nil, err
	}
	return s.reservations.Cancel(ctx, req.ReservationID)
}

func (s *Server) GetReservation(ctx context.Context, req *ReservationRequest) (*reservations.Details, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.reservations.GetForUser(ctx, req.ReservationID, userID)
}

func (s *Server) CanChangeSeat(ctx context.Context, req *seatchange.Request) (*seatchange.Decision, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in := *req
	in.UserID = userID
	decision, err := s.seats.CanChangeSeat(ctx, in)
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

func (s *Server) ChangeSeat(ctx context.Context, req *seatchange.Request) (*seatchange.Result, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in := *req
	in.UserID = userID
	return s.seats.ChangeSeat(ctx, in)
}

func (s *Server) authorize(ctx context.Context, reservationID int64) error {
	userID, err := caller(ctx)
	if err != nil {
		return err
	}
	_, err = s.reservations.GetForUser(ctx, reservationID, userID)
	return err
}

func caller(ctx context.Context) (string, error) {
	userID := grpcapi.UserID(ctx)
	if userID == "" {
		return "", status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return userID, nil
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReservationsServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcapi.Unary(ServiceName, "CreateReservation", ReservationsServer.CreateReservation),
		grpcapi.Unary(ServiceName, "AddSegment", ReservationsServer.AddSegment),
		grpcapi.Unary(ServiceName, "Book", ReservationsServer.Book),
		grpcapi.Unary(ServiceName, "ConfirmPayment", ReservationsServer.ConfirmPayment),
		grpcapi.Unary(ServiceName, "CancelReservation", ReservationsServer.CancelReservation),
		grpcapi.Unary(ServiceName, "GetReservation", ReservationsServer.GetReservation),
		grpcapi.Unary(ServiceName, "CanChangeSeat", ReservationsServer.CanChangeSeat),
		grpcapi.Unary(ServiceName, "ChangeSeat", ReservationsServer.ChangeSeat),
	},
	Streams: []grpc.StreamDesc{},
}

func Register(s grpc.ServiceRegistrar, srv ReservationsServer) {
	s.RegisterService(&ServiceDesc, srv)
}
