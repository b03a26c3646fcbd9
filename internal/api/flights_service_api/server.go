package flights_service_api

import (
	"context"
	"time"

	"github.com/Domenick1991/airreserve/internal/api/grpcapi"
	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/inventory"
	"github.com/Domenick1991/airreserve/internal/service/flights"
	"google.golang.org/grpc"
)

const ServiceName = "airreserve.flights.v1.FlightsService"

type FlightsServer interface {
	ListFlights(ctx context.Context, req *ListFlightsRequest) (*ListFlightsResponse, error)
	GetFlight(ctx context.Context, req *FlightRequest) (*domain.Flight, error)
	GetSchedule(ctx context.Context, req *FlightRequest) (*flights.Schedule, error)
	GetLocalTimes(ctx context.Context, req *LocalTimesRequest) (*flights.LocalTimes, error)
	GetRouteDuration(ctx context.Context, req *RouteDurationRequest) (*flights.RouteDuration, error)
	GetSeatMap(ctx context.Context, req *FlightRequest) (*SeatMapResponse, error)
}

type ListFlightsRequest struct{}

type ListFlightsResponse struct {
	Flights []domain.Flight `json:"flights"`
}

type FlightRequest struct {
	FlightID int64 `json:"flight_id"`
}

type LocalTimesRequest struct {
	FlightID int64     `json:"flight_id"`
	At       time.Time `json:"at"`
}

type RouteDurationRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type SeatMapResponse struct {
	FlightID int64         `json:"flight_id"`
	Seats    []domain.Seat `json:"seats"`
}

// Server exposes flight queries over gRPC.
type Server struct {
	flights   flights.FlightUseCase
	inventory inventory.InventoryUseCase
}

func NewServer(flights flights.FlightUseCase, inventory inventory.InventoryUseCase) *Server {
	return &Server{flights: flights, inventory: inventory}
}

var _ FlightsServer = (*Server)(nil)

func (s *Server) ListFlights(ctx context.Context, _ *ListFlightsRequest) (*ListFlightsResponse, error) {
	list, err := s.flights.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListFlightsResponse{Flights: list}, nil
}

func (s *Server) GetFlight(ctx context.Context, req *FlightRequest) (*domain.Flight, error) {
	return s.flights.GetByID(ctx, req.FlightID)
}

func (s *Server) GetSchedule(ctx context.Context, req *FlightRequest) (*flights.Schedule, error) {
	return s.flights.Schedule(ctx, req.FlightID)
}

func (s *Server) GetLocalTimes(ctx context.Context, req *LocalTimesRequest) (*flights.LocalTimes, error) {
	at := req.At
	if at.IsZero() {
		at = time.Now()
	}
	return s.flights.LocalTimes(ctx, req.FlightID, at)
}

func (s *Server) GetRouteDuration(ctx context.Context, req *RouteDurationRequest) (*flights.RouteDuration, error) {
	if req.Origin == "" || req.Destination == "" {
		return nil, domain.Validation("CITY_REQUIRED", "origin and destination are required")
	}
	return s.flights.RouteDuration(ctx, req.Origin, req.Destination)
}

func (s *Server) GetSeatMap(ctx context.Context, req *FlightRequest) (*SeatMapResponse, error) {
	seats, err := s.inventory.SeatMap(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	return &SeatMapResponse{FlightID: req.FlightID, Seats: seats}, nil
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FlightsServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcapi.Unary(ServiceName, "ListFlights", FlightsServer.ListFlights),
		grpcapi.Unary(ServiceName, "GetFlight", FlightsServer.GetFlight),
		grpcapi.Unary(ServiceName, "GetSchedule", FlightsServer.GetSchedule),
		grpcapi.Unary(ServiceName, "GetLocalTimes", FlightsServer.GetLocalTimes),
		grpcapi.Unary(ServiceName, "GetRouteDuration", FlightsServer.GetRouteDuration),
		grpcapi.Unary(ServiceName, "GetSeatMap", FlightsServer.GetSeatMap),
	},
	Streams: []grpc.StreamDesc{},
}

func Register(s grpc.ServiceRegistrar, srv FlightsServer) {
	s.RegisterService(&ServiceDesc, srv)
}
