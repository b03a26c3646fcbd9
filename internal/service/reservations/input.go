package reservations

import (
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
)

// MaxPassengers bounds a single reservation.
const MaxPassengers = 9

type CreateReservationInput struct {
	UserID         string            `json:"user_id" validate:"required"`
	FlightID       int64             `json:"flight_id" validate:"required,gt=0"`
	ReturnFlightID *int64            `json:"return_flight_id,omitempty" validate:"omitempty,gt=0"`
	Class          domain.CabinClass `json:"class" validate:"required,oneof=FIRST SECOND"`
	PassengerCount int               `json:"passenger_count" validate:"required,min=1,max=9"`
	// PriceCents, when set, must equal the fare computed for the flights.
	PriceCents int64 `json:"price_cents,omitempty" validate:"gte=0"`
}

type TravelerInput struct {
	UserID    *string   `json:"user_id,omitempty"`
	Document  string    `json:"document" validate:"required,max=32"`
	FirstName string    `json:"first_name" validate:"required,max=100"`
	LastName  string    `json:"last_name" validate:"required,max=100"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	Gender    string    `json:"gender" validate:"omitempty,oneof=M F X"`
	Email     string    `json:"email" validate:"omitempty,email"`
	Phone     string    `json:"phone" validate:"omitempty,max=32"`
}

type AddSegmentInput struct {
	ReservationID int64      `json:"reservation_id"`
	Leg           domain.Leg `json:"leg"`
	// FlightID is optional; when set it must be the flight of Leg.
	FlightID int64         `json:"flight_id,omitempty"`
	SeatID   *int64        `json:"seat_id,omitempty"`
	Traveler TravelerInput `json:"traveler"`
}

type BookTraveler struct {
	TravelerInput
	OutboundSeatID *int64 `json:"outbound_seat_id,omitempty"`
	ReturnSeatID   *int64 `json:"return_seat_id,omitempty"`
}

type BookInput struct {
	CreateReservationInput
	Travelers []BookTraveler `json:"travelers"`
}

type SegmentResult struct {
	Segment  domain.Segment  `json:"segment"`
	Traveler domain.Traveler `json:"traveler"`
	Seat     domain.Seat     `json:"seat"`
}

type Details struct {
	Reservation domain.Reservation `json:"reservation"`
	Segments    []domain.Segment   `json:"segments"`
	Travelers   []domain.Traveler  `json:"travelers"`
}
