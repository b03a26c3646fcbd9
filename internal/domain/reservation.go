package domain

import "time"

// HoldWindow is the fixed time an unpaid reservation keeps its seats.
const HoldWindow = 24 * time.Hour

// AdultAge is the minimum age of the traveler that makes a reservation bookable.
const AdultAge = 18

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationPaid      ReservationStatus = "PAID"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

type CancelReason string

const (
	CancelReasonNone           CancelReason = ""
	CancelReasonUser           CancelReason = "USER"
	CancelReasonExpired        CancelReason = "EXPIRED"
	CancelReasonSegmentFailure CancelReason = "SEGMENT_FAILURE"
)

type Reservation struct {
	ID              int64             `json:"id"`
	Code            string            `json:"code"`
	UserID          string            `json:"user_id"`
	FlightID        int64             `json:"flight_id"`
	ReturnFlightID  *int64            `json:"return_flight_id,omitempty"`
	Class           CabinClass        `json:"class"`
	PassengerCount  int               `json:"passenger_count"`
	TotalPriceCents int64             `json:"total_price_cents"`
	Status          ReservationStatus `json:"status"`
	CancelReason    CancelReason      `json:"cancel_reason,omitempty"`
	ExpiresAt       time.Time         `json:"expires_at"`
	PaidAt          *time.Time        `json:"paid_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Expired reports whether an unpaid hold is past its deadline at now.
func (r Reservation) Expired(now time.Time) bool {
	return r.Status == ReservationActive && now.After(r.ExpiresAt)
}

// Legs lists the legs this reservation must bind segments on.
func (r Reservation) Legs() []Leg {
	if r.ReturnFlightID != nil {
		return []Leg{LegOutbound, LegReturn}
	}
	return []Leg{LegOutbound}
}

// FlightFor returns the flight a leg of this reservation travels on.
func (r Reservation) FlightFor(leg Leg) (int64, bool) {
	switch leg {
	case LegOutbound:
		return r.FlightID, true
	case LegReturn:
		if r.ReturnFlightID == nil {
			return 0, false
		}
		return *r.ReturnFlightID, true
	}
	return 0, false
}

type Leg string

const (
	LegOutbound Leg = "OUTBOUND"
	LegReturn   Leg = "RETURN"
)

type Segment struct {
	ID            int64     `json:"id"`
	ReservationID int64     `json:"reservation_id"`
	TravelerID    int64     `json:"traveler_id"`
	Leg           Leg       `json:"leg"`
	FlightID      int64     `json:"flight_id"`
	SeatID        *int64    `json:"seat_id,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

type Traveler struct {
	ID            int64     `json:"id"`
	ReservationID int64     `json:"reservation_id"`
	UserID        *string   `json:"user_id,omitempty"`
	Document      string    `json:"document"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	BirthDate     time.Time `json:"birth_date"`
	Gender        string    `json:"gender"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	CreatedAt     time.Time `json:"created_at"`
}

// AgeAt returns completed years of age on the date of at.
func (t Traveler) AgeAt(at time.Time) int {
	years := at.Year() - t.BirthDate.Year()
	if at.Month() < t.BirthDate.Month() || (at.Month() == t.BirthDate.Month() && at.Day() < t.BirthDate.Day()) {
		years--
	}
	return years
}

func (t Traveler) IsAdultAt(at time.Time) bool {
	return t.AgeAt(at) >= AdultAge
}
