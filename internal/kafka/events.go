package kafka

import "time"

const (
	EventReservationCreated   = "reservation_created"
	EventReservationPaid      = "reservation_paid"
	EventReservationCancelled = "reservation_cancelled"
	EventReservationExpired   = "reservation_expired"
	EventSeatChanged          = "seat_changed"
)

type ReservationEvent struct {
	Type           string    `json:"type"`
	ReservationID  int64     `json:"reservation_id"`
	Code           string    `json:"code"`
	UserID         string    `json:"user_id"`
	FlightID       int64     `json:"flight_id"`
	ReturnFlightID *int64    `json:"return_flight_id,omitempty"`
	Status         string    `json:"status"`
	CancelReason   string    `json:"cancel_reason,omitempty"`
	SeatIDs        []int64   `json:"seat_ids,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PaymentConfirmed is emitted by the payment provider integration once a charge settles.
type PaymentConfirmed struct {
	ReservationID int64  `json:"reservation_id"`
	AmountCents   int64  `json:"amount_cents"`
	PaymentRef    string `json:"payment_ref"`
}
