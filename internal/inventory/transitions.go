package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/repository"
)

// The functions in this file run inside a caller's unit of work so seat
// transitions commit or roll back together with reservation changes.

// Claim moves count AVAILABLE seats of class to RESERVED, lowest row first.
// Either all count seats are claimed or none.
func Claim(ctx context.Context, tx repository.SeatTx, flightID int64, class domain.CabinClass, count int) ([]domain.Seat, error) {
	if count <= 0 {
		return nil, domain.Validation("SEAT_COUNT", "seat count must be positive")
	}
	if !class.Valid() {
		return nil, domain.Validation("CABIN_CLASS", fmt.Sprintf("unknown cabin class %q", class))
	}
	if err := tx.LockFlight(ctx, flightID); err != nil {
		return nil, err
	}
	seats, err := tx.ListSeats(ctx, flightID)
	if err != nil {
		return nil, err
	}

	claimed := make([]domain.Seat, 0, count)
	for _, s := range seats {
		if len(claimed) == count {
			break
		}
		if s.Class == class && s.IsAvailable() {
			claimed = append(claimed, s)
		}
	}
	if len(claimed) < count {
		return nil, domain.InsufficientInventory(fmt.Sprintf("only %d %s seats available on flight %d, %d requested", len(claimed), class, flightID, count))
	}
	for i := range claimed {
		if err := tx.SetSeatStatus(ctx, claimed[i].ID, domain.SeatReserved); err != nil {
			return nil, err
		}
		claimed[i].Status = domain.SeatReserved
	}
	return claimed, nil
}

// ClaimSeat reserves one specific seat, which must be AVAILABLE, on flightID and of class.
func ClaimSeat(ctx context.Context, tx repository.SeatTx, flightID, seatID int64, class domain.CabinClass) (*domain.Seat, error) {
	if err := tx.LockFlight(ctx, flightID); err != nil {
		return nil, err
	}
	seat, err := tx.GetSeat(ctx, seatID)
	if err != nil {
		return nil, err
	}
	switch {
	case seat.FlightID != flightID:
		return nil, domain.Validation("SEAT_WRONG_FLIGHT", fmt.Sprintf("seat %s does not belong to flight %d", seat.Label(), flightID))
	case seat.Class != class:
		return nil, domain.Validation("SEAT_WRONG_CLASS", fmt.Sprintf("seat %s is %s, reservation is %s", seat.Label(), seat.Class, class))
	case !seat.IsAvailable():
		return nil, domain.SeatUnavailable(fmt.Sprintf("seat %s is %s", seat.Label(), seat.Status))
	}
	if err := tx.SetSeatStatus(ctx, seat.ID, domain.SeatReserved); err != nil {
		return nil, err
	}
	seat.Status = domain.SeatReserved
	return seat, nil
}

// Confirm moves RESERVED seats to OCCUPIED. Already OCCUPIED seats are left as they are;
// an AVAILABLE seat means the hold was lost and fails the whole batch.
func Confirm(ctx context.Context, tx repository.SeatTx, seatIDs []int64) error {
	seats, err := lockSeats(ctx, tx, seatIDs)
	if err != nil {
		return err
	}
	for _, s := range seats {
		switch s.Status {
		case domain.SeatOccupied:
			continue
		case domain.SeatReserved:
			if err := tx.SetSeatStatus(ctx, s.ID, domain.SeatOccupied); err != nil {
				return err
			}
		default:
			return domain.StateConflict("SEAT_NOT_HELD", fmt.Sprintf("seat %s is not held", s.Label()))
		}
	}
	return nil
}

// Release returns RESERVED or OCCUPIED seats to AVAILABLE; AVAILABLE seats are ignored.
func Release(ctx context.Context, tx repository.SeatTx, seatIDs []int64) error {
	seats, err := lockSeats(ctx, tx, seatIDs)
	if err != nil {
		return err
	}
	for _, s := range seats {
		if s.IsAvailable() {
			continue
		}
		if err := tx.SetSeatStatus(ctx, s.ID, domain.SeatAvailable); err != nil {
			return err
		}
	}
	return nil
}

// Change frees oldID and gives newID the old seat's status as one step.
// newID must be AVAILABLE on the same flight and in the same class.
func Change(ctx context.Context, tx repository.SeatTx, oldID, newID int64) (*domain.Seat, error) {
	if oldID == newID {
		return nil, domain.Validation("SAME_SEAT", "new seat equals current seat")
	}
	seats, err := lockSeats(ctx, tx, []int64{oldID, newID})
	if err != nil {
		return nil, err
	}
	oldSeat, newSeat := seats[0], seats[1]
	if err := CheckChange(oldSeat, newSeat); err != nil {
		return nil, err
	}
	if oldSeat.IsAvailable() {
		return nil, domain.StateConflict("SEAT_NOT_HELD", fmt.Sprintf("seat %s is not held", oldSeat.Label()))
	}

	if err := tx.SetSeatStatus(ctx, oldSeat.ID, domain.SeatAvailable); err != nil {
		return nil, err
	}
	if err := tx.SetSeatStatus(ctx, newSeat.ID, oldSeat.Status); err != nil {
		return nil, err
	}
	newSeat.Status = oldSeat.Status
	return &newSeat, nil
}

// CheckChange validates that target can replace current.
func CheckChange(current, target domain.Seat) error {
	switch {
	case current.FlightID != target.FlightID:
		return domain.Validation("DIFFERENT_FLIGHT", "different flight")
	case current.Class != target.Class:
		return domain.Validation("DIFFERENT_CLASS", "different class")
	case !target.IsAvailable():
		return domain.SeatUnavailable("seat not available")
	}
	return nil
}

// lockSeats locks every flight the seats belong to in ascending id order, then
// reads the seats under the locks.
func lockSeats(ctx context.Context, tx repository.SeatTx, seatIDs []int64) ([]domain.Seat, error) {
	flights := make(map[int64]bool)
	for _, id := range seatIDs {
		s, err := tx.GetSeat(ctx, id)
		if err != nil {
			return nil, err
		}
		flights[s.FlightID] = true
	}
	ordered := make([]int64, 0, len(flights))
	for id := range flights {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	for _, id := range ordered {
		if err := tx.LockFlight(ctx, id); err != nil {
			return nil, err
		}
	}

	seats := make([]domain.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		s, err := tx.GetSeat(ctx, id)
		if err != nil {
			return nil, err
		}
		seats = append(seats, *s)
	}
	return seats, nil
}

// LockFlights locks the given flights in ascending id order.
func LockFlights(ctx context.Context, tx repository.SeatTx, flightIDs ...int64) error {
	ordered := append([]int64(nil), flightIDs...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	for i, id := range ordered {
		if i > 0 && ordered[i-1] == id {
			continue
		}
		if err := tx.LockFlight(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
