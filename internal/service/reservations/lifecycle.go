package reservations

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/inventory"
	"github.com/Domenick1991/airreserve/internal/kafka"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) createInTx(ctx context.Context, tx repository.Tx, input CreateReservationInput, now time.Time) (*domain.Reservation, error) {
	if err := s.check(input, "INVALID_RESERVATION"); err != nil {
		return nil, err
	}

	outbound, outboundDep, err := s.bookableFlight(ctx, tx, input.FlightID, now)
	if err != nil {
		return nil, err
	}
	fare := outbound.FareCents(input.Class)

	if input.ReturnFlightID != nil {
		if *input.ReturnFlightID == input.FlightID {
			return nil, domain.Validation("RETURN_FLIGHT", "return flight must differ from outbound flight")
		}
		ret, retDep, err := s.bookableFlight(ctx, tx, *input.ReturnFlightID, now)
		if err != nil {
			return nil, err
		}
		if ret.Route.Origin.ID != outbound.Route.Destination.ID || ret.Route.Destination.ID != outbound.Route.Origin.ID {
			return nil, domain.Validation("RETURN_ROUTE_MISMATCH", "return flight must fly the outbound route in reverse")
		}
		if !retDep.After(outboundDep) {
			return nil, domain.Validation("RETURN_BEFORE_OUTBOUND", "return flight must depart after the outbound flight")
		}
		fare += ret.FareCents(input.Class)
	}

	total := fare * int64(input.PassengerCount)
	if input.PriceCents > 0 && input.PriceCents != total {
		return nil, domain.Validation("PRICE_MISMATCH", fmt.Sprintf("price %d does not match fare total %d", input.PriceCents, total))
	}

	res := &domain.Reservation{
		Code:            uuid.NewString(),
		UserID:          input.UserID,
		FlightID:        input.FlightID,
		ReturnFlightID:  input.ReturnFlightID,
		Class:           input.Class,
		PassengerCount:  input.PassengerCount,
		TotalPriceCents: total,
		Status:          domain.ReservationActive,
		ExpiresAt:       now.Add(domain.HoldWindow),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := tx.InsertReservation(ctx, res); err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}
	return res, nil
}

// bookableFlight loads an ACTIVE flight on a valid route that has not departed yet.
func (s *Service) bookableFlight(ctx context.Context, tx repository.Tx, id int64, now time.Time) (*domain.Flight, time.Time, error) {
	f, err := tx.GetFlight(ctx, id)
	if err != nil {
		return nil, time.Time{}, err
	}
	if f.Status != domain.FlightStatusActive {
		return nil, time.Time{}, domain.Validation("FLIGHT_INACTIVE", fmt.Sprintf("flight %d is not open for booking", id))
	}
	if err := f.Route.Validate(); err != nil {
		return nil, time.Time{}, err
	}
	loc, _, err := s.zones.CityLocation(f.Route.Origin)
	if err != nil {
		return nil, time.Time{}, err
	}
	dep := f.DepartureIn(loc)
	if !dep.After(now) {
		return nil, time.Time{}, domain.StateConflict("FLIGHT_DEPARTED", "flight already departed")
	}
	return f, dep, nil
}

func (s *Service) addSegmentInTx(
	ctx context.Context,
	tx repository.Tx,
	res *domain.Reservation,
	leg domain.Leg,
	flightID int64,
	input TravelerInput,
	seatID *int64,
	now time.Time,
) (*SegmentResult, error) {
	if err := s.check(input, "INVALID_TRAVELER"); err != nil {
		return nil, err
	}
	if !input.BirthDate.Before(now) {
		return nil, domain.Validation("BIRTH_DATE", "birth date must be in the past")
	}

	if leg == "" {
		leg = domain.LegOutbound
	}
	legFlight, ok := res.FlightFor(leg)
	if !ok {
		return nil, domain.Validation("INVALID_LEG", fmt.Sprintf("reservation has no %s leg", leg))
	}
	if flightID != 0 && flightID != legFlight {
		return nil, domain.Validation("FLIGHT_MISMATCH", fmt.Sprintf("%s leg travels on flight %d", leg, legFlight))
	}

	if err := legOpen(ctx, tx, res, leg); err != nil {
		return nil, err
	}

	document := strings.TrimSpace(input.Document)
	dup, err := tx.HasActiveSegment(ctx, document, legFlight)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, domain.DuplicateBooking(fmt.Sprintf("traveler %s already holds a seat on flight %d", document, legFlight))
	}

	traveler, err := tx.FindTraveler(ctx, res.ID, document)
	switch {
	case err == nil:
		if !sameTraveler(traveler, input) {
			return nil, domain.Validation("TRAVELER_MISMATCH",
				fmt.Sprintf("traveler %s is already on the reservation with different details", document))
		}
	case errors.Is(err, domain.ErrNotFound):
		traveler = &domain.Traveler{
			ReservationID: res.ID,
			UserID:        input.UserID,
			Document:      document,
			FirstName:     input.FirstName,
			LastName:      input.LastName,
			BirthDate:     input.BirthDate,
			Gender:        input.Gender,
			Email:         input.Email,
			Phone:         input.Phone,
			CreatedAt:     now,
		}
		if err := tx.InsertTraveler(ctx, traveler); err != nil {
			return nil, fmt.Errorf("insert traveler: %w", err)
		}
	default:
		return nil, err
	}

	var seat *domain.Seat
	if seatID != nil {
		seat, err = inventory.ClaimSeat(ctx, tx, legFlight, *seatID, res.Class)
		if err != nil {
			return nil, err
		}
	} else {
		claimed, err := inventory.Claim(ctx, tx, legFlight, res.Class, 1)
		if err != nil {
			return nil, err
		}
		seat = &claimed[0]
	}

	seg := &domain.Segment{
		ReservationID: res.ID,
		TravelerID:    traveler.ID,
		Leg:           leg,
		FlightID:      legFlight,
		SeatID:        &seat.ID,
		Active:        true,
		CreatedAt:     now,
	}
	if err := tx.InsertSegment(ctx, seg); err != nil {
		return nil, err
	}
	return &SegmentResult{Segment: *seg, Traveler: *traveler, Seat: *seat}, nil
}

// checkCompletion enforces the adult rule once every leg has all its passengers.
func (s *Service) checkCompletion(ctx context.Context, tx repository.Tx, res *domain.Reservation) error {
	segments, err := tx.ListSegments(ctx, res.ID)
	if err != nil {
		return err
	}
	if !complete(res, segments) {
		return nil
	}
	return requireAdult(ctx, tx, res, segments)
}

func (s *Service) requireComplete(ctx context.Context, tx repository.Tx, res *domain.Reservation) ([]domain.Segment, error) {
	segments, err := tx.ListSegments(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	if !complete(res, segments) {
		return nil, domain.StateConflict("RESERVATION_INCOMPLETE", "reservation has passengers without a seat")
	}
	if err := requireAdult(ctx, tx, res, segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// requireAdult checks ages as of the reservation's creation.
func requireAdult(ctx context.Context, tx repository.Tx, res *domain.Reservation, segments []domain.Segment) error {
	bound := make(map[int64]bool, len(segments))
	for _, seg := range segments {
		if seg.Active {
			bound[seg.TravelerID] = true
		}
	}
	travelers, err := tx.ListTravelers(ctx, res.ID)
	if err != nil {
		return err
	}
	for _, t := range travelers {
		if bound[t.ID] && t.IsAdultAt(res.CreatedAt) {
			return nil
		}
	}
	return domain.Validation("NO_ADULT", fmt.Sprintf("at least one traveler must be %d or older", domain.AdultAge))
}

// cancelLocked frees every bound seat and cancels res. res must be locked by tx.
func (s *Service) cancelLocked(ctx context.Context, tx repository.Tx, res *domain.Reservation, reason domain.CancelReason, now time.Time) ([]int64, error) {
	segments, err := tx.ListSegments(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	seatIDs, flights := boundSeats(segments)
	if err := inventory.Release(ctx, tx, seatIDs); err != nil {
		return nil, err
	}
	for i := range segments {
		if !segments[i].Active {
			continue
		}
		segments[i].Active = false
		if err := tx.UpdateSegment(ctx, &segments[i]); err != nil {
			return nil, err
		}
	}

	res.Status = domain.ReservationCancelled
	res.CancelReason = reason
	res.UpdatedAt = now
	if err := tx.UpdateReservation(ctx, res); err != nil {
		return nil, err
	}
	return flights, nil
}

func (s *Service) compensate(ctx context.Context, reservationID int64, cause error) {
	now := s.now()
	var (
		res     *domain.Reservation
		flights []int64
		done    bool
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		res, err = tx.LockReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.Status != domain.ReservationActive {
			return nil
		}
		done = true
		flights, err = s.cancelLocked(ctx, tx, res, domain.CancelReasonSegmentFailure, now)
		return err
	})
	if err != nil {
		s.logger.Error("failed to cancel reservation after segment failure",
			zap.Int64("reservation_id", reservationID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}
	if done {
		s.logger.Warn("reservation cancelled after segment failure",
			zap.Int64("reservation_id", reservationID),
			zap.String("code", domain.CodeOf(cause)),
		)
		s.afterCancel(ctx, res, flights)
	}
}

func (s *Service) afterCreate(ctx context.Context, res *domain.Reservation, segments []domain.Segment) {
	seatIDs, flights := boundSeats(segments)
	s.invalidate(ctx, flights...)
	if s.scheduler != nil {
		if err := s.scheduler.ScheduleExpiry(ctx, res.ID, res.ExpiresAt); err != nil {
			s.logger.Warn("failed to schedule hold expiry, sweep will cover it",
				zap.Int64("reservation_id", res.ID),
				zap.Error(err),
			)
		}
	}
	s.emit(ctx, kafka.EventReservationCreated, res, seatIDs)
}

func (s *Service) afterCancel(ctx context.Context, res *domain.Reservation, flights []int64) {
	s.invalidate(ctx, flights...)
	event := kafka.EventReservationCancelled
	if res.CancelReason == domain.CancelReasonExpired {
		event = kafka.EventReservationExpired
	}
	s.emit(ctx, event, res, nil)
}

func (s *Service) invalidate(ctx context.Context, flights ...int64) {
	if s.seatMaps != nil && len(flights) > 0 {
		s.seatMaps.Invalidate(ctx, flights...)
	}
}

// emit publishes a lifecycle event. Publishing is best effort.
func (s *Service) emit(ctx context.Context, eventType string, res *domain.Reservation, seatIDs []int64) {
	if s.publisher == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.ReservationEvent{
		Type:           eventType,
		ReservationID:  res.ID,
		Code:           res.Code,
		UserID:         res.UserID,
		FlightID:       res.FlightID,
		ReturnFlightID: res.ReturnFlightID,
		Status:         string(res.Status),
		CancelReason:   string(res.CancelReason),
		SeatIDs:        seatIDs,
		ExpiresAt:      res.ExpiresAt,
		OccurredAt:     s.now(),
	}
	if err := s.publisher.Publish(ctx, s.eventsTopic, strconv.FormatInt(res.ID, 10), event); err != nil {
		s.logger.Warn("failed to publish reservation event",
			zap.String("type", eventType),
			zap.Int64("reservation_id", res.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) check(v interface{}, code string) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.Validation(code, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return err
}

func loadDetails(ctx context.Context, tx repository.Tx, res *domain.Reservation) (*Details, error) {
	segments, err := tx.ListSegments(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	travelers, err := tx.ListTravelers(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	return &Details{Reservation: *res, Segments: segments, Travelers: travelers}, nil
}

func notActive(res *domain.Reservation) error {
	switch {
	case res.Status == domain.ReservationPaid:
		return domain.StateConflict("RESERVATION_PAID", "reservation is already paid")
	case res.CancelReason == domain.CancelReasonExpired:
		return expiredError(res)
	default:
		return domain.StateConflict("RESERVATION_CANCELLED", "reservation is cancelled")
	}
}

func expiredError(res *domain.Reservation) error {
	return domain.StateConflict("RESERVATION_EXPIRED",
		fmt.Sprintf("reservation %s expired at %s", res.Code, res.ExpiresAt.UTC().Format(time.RFC3339)))
}

// sameTraveler reports whether input describes the stored traveler. Empty
// optional contact fields in input match anything.
func sameTraveler(t *domain.Traveler, input TravelerInput) bool {
	if !strings.EqualFold(strings.TrimSpace(input.FirstName), strings.TrimSpace(t.FirstName)) ||
		!strings.EqualFold(strings.TrimSpace(input.LastName), strings.TrimSpace(t.LastName)) {
		return false
	}
	if !sameDate(input.BirthDate, t.BirthDate) {
		return false
	}
	for _, f := range [][2]string{{input.Gender, t.Gender}, {input.Email, t.Email}, {input.Phone, t.Phone}} {
		if f[0] != "" && !strings.EqualFold(f[0], f[1]) {
			return false
		}
	}
	return true
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// legOpen fails with LEG_FULL once leg already carries every passenger of the reservation.
func legOpen(ctx context.Context, tx repository.ReservationTx, res *domain.Reservation, leg domain.Leg) error {
	if leg == "" {
		leg = domain.LegOutbound
	}
	segments, err := tx.ListSegments(ctx, res.ID)
	if err != nil {
		return err
	}
	if countLeg(segments, leg) >= res.PassengerCount {
		return domain.Validation("LEG_FULL", fmt.Sprintf("%s leg already has %d passengers", leg, res.PassengerCount))
	}
	return nil
}

func countLeg(segments []domain.Segment, leg domain.Leg) int {
	n := 0
	for _, seg := range segments {
		if seg.Active && seg.Leg == leg {
			n++
		}
	}
	return n
}

func complete(res *domain.Reservation, segments []domain.Segment) bool {
	for _, leg := range res.Legs() {
		if countLeg(segments, leg) != res.PassengerCount {
			return false
		}
	}
	return true
}

// boundSeats returns the seats held by active segments and the flights they are on.
func boundSeats(segments []domain.Segment) (seatIDs, flights []int64) {
	seen := make(map[int64]bool)
	for _, seg := range segments {
		if !seg.Active || seg.SeatID == nil {
			continue
		}
		seatIDs = append(seatIDs, *seg.SeatID)
		if !seen[seg.FlightID] {
			seen[seg.FlightID] = true
			flights = append(flights, seg.FlightID)
		}
	}
	return seatIDs, flights
}
