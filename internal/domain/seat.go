package domain

import "fmt"

type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatReserved  SeatStatus = "RESERVED"
	SeatOccupied  SeatStatus = "OCCUPIED"
)

type Seat struct {
	ID       int64      `json:"id"`
	FlightID int64      `json:"flight_id"`
	Row      int        `json:"row"`
	Column   string     `json:"column"`
	Class    CabinClass `json:"class"`
	Status   SeatStatus `json:"status"`
}

// Label renders the seat as printed on a boarding pass, e.g. "12A".
func (s Seat) Label() string {
	return fmt.Sprintf("%d%s", s.Row, s.Column)
}

func (s Seat) IsAvailable() bool {
	return s.Status == SeatAvailable
}
