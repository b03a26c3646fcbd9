package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
)

// Store runs units of work. Everything done through tx inside fn commits
// together or, when fn returns an error, not at all.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	FlightTx
	SeatTx
	ReservationTx
}

type FlightTx interface {
	InsertCity(ctx context.Context, city *domain.City) error
	InsertRoute(ctx context.Context, route *domain.Route) error
	InsertFlight(ctx context.Context, flight *domain.Flight) error
	GetFlight(ctx context.Context, id int64) (*domain.Flight, error)
	ListFlights(ctx context.Context) ([]domain.Flight, error)
}

type SeatTx interface {
	// LockFlight serializes every seat transition of a flight until the unit of work ends.
	LockFlight(ctx context.Context, flightID int64) error
	InsertSeats(ctx context.Context, seats []domain.Seat) error
	ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error)
	GetSeat(ctx context.Context, id int64) (*domain.Seat, error)
	SetSeatStatus(ctx context.Context, id int64, status domain.SeatStatus) error
}

type ReservationTx interface {
	InsertReservation(ctx context.Context, r *domain.Reservation) error
	// LockReservation reads the reservation and holds its row until the unit of work ends.
	LockReservation(ctx context.Context, id int64) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id int64) (*domain.Reservation, error)
	UpdateReservation(ctx context.Context, r *domain.Reservation) error
	ListExpiredReservationIDs(ctx context.Context, now time.Time, limit int) ([]int64, error)

	InsertTraveler(ctx context.Context, t *domain.Traveler) error
	FindTraveler(ctx context.Context, reservationID int64, document string) (*domain.Traveler, error)
	ListTravelers(ctx context.Context, reservationID int64) ([]domain.Traveler, error)

	InsertSegment(ctx context.Context, s *domain.Segment) error
	GetSegment(ctx context.Context, id int64) (*domain.Segment, error)
	ListSegments(ctx context.Context, reservationID int64) ([]domain.Segment, error)
	UpdateSegment(ctx context.Context, s *domain.Segment) error
	// HasActiveSegment reports whether a traveler document already holds an active segment on the flight.
	HasActiveSegment(ctx context.Context, document string, flightID int64) (bool, error)
}
