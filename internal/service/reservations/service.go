package reservations

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/inventory"
	"github.com/Domenick1991/airreserve/internal/kafka"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/Domenick1991/airreserve/internal/telemetry"
	"github.com/Domenick1991/airreserve/internal/timezones"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultSweepBatch = 100

type ReservationUseCase interface {
	CreateReservation(ctx context.Context, input CreateReservationInput) (*domain.Reservation, error)
	AddSegment(ctx context.Context, input AddSegmentInput) (*SegmentResult, error)
	Book(ctx context.Context, input BookInput) (*Details, error)
	MarkPaid(ctx context.Context, reservationID, amountCents int64) (*domain.Reservation, error)
	Cancel(ctx context.Context, reservationID int64) (*domain.Reservation, error)
	GetReservation(ctx context.Context, reservationID int64) (*Details, error)
	GetForUser(ctx context.Context, reservationID int64, userID string) (*Details, error)
	ExpireReservation(ctx context.Context, reservationID int64) (bool, error)
	ExpireReservations(ctx context.Context) ([]int64, error)
}

// ZoneResolver gives the timezone a city's naive departure times are written in.
type ZoneResolver interface {
	CityLocation(c domain.City) (*time.Location, timezones.Resolution, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// ExpiryScheduler arranges a durable expiry check at the hold deadline.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, reservationID int64, deadline time.Time) error
}

// SeatMapInvalidator drops cached seat maps after committed seat changes.
type SeatMapInvalidator interface {
	Invalidate(ctx context.Context, flightIDs ...int64)
}

type Service struct {
	store       repository.Store
	zones       ZoneResolver
	publisher   Publisher
	eventsTopic string
	scheduler   ExpiryScheduler
	seatMaps    SeatMapInvalidator
	logger      *zap.Logger
	validate    *validator.Validate
	now         func() time.Time
	sweepBatch  int
}

type Option func(*Service)

func WithEvents(publisher Publisher, topic string) Option {
	return func(s *Service) {
		s.publisher = publisher
		s.eventsTopic = topic
	}
}

func WithExpiryScheduler(scheduler ExpiryScheduler) Option {
	return func(s *Service) {
		s.scheduler = scheduler
	}
}

func WithSeatMapInvalidator(inv SeatMapInvalidator) Option {
	return func(s *Service) {
		s.seatMaps = inv
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithSweepBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepBatch = n
		}
	}
}

func NewService(store repository.Store, zones ZoneResolver, opts ...Option) *Service {
	s := &Service{
		store:      store,
		zones:      zones,
		logger:     zap.NewNop(),
		validate:   validator.New(),
		now:        time.Now,
		sweepBatch: defaultSweepBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ReservationUseCase = (*Service)(nil)

func (s *Service) CreateReservation(ctx context.Context, input CreateReservationInput) (res *domain.Reservation, err error) {
	ctx, span := telemetry.StartSpan(ctx, "reservations.create",
		attribute.Int64("flight_id", input.FlightID),
		attribute.Int("passenger_count", input.PassengerCount),
	)
	defer func() { telemetry.End(span, err) }()

	now := s.now()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		res, err = s.createInTx(ctx, tx, input, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCreate(ctx, res, nil)
	return res, nil
}

// AddSegment binds one traveler to a seat on one leg. Any failure after the
// reservation is found ACTIVE cancels it and releases the seats it holds.
func (s *Service) AddSegment(ctx context.Context, input AddSegmentInput) (result *SegmentResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "reservations.add_segment",
		attribute.Int64("reservation_id", input.ReservationID),
		attribute.String("leg", string(input.Leg)),
	)
	defer func() { telemetry.End(span, err) }()

	now := s.now()
	var (
		expired    *domain.Reservation
		compensate bool
		flights    []int64
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		res, err := tx.LockReservation(ctx, input.ReservationID)
		if err != nil {
			return err
		}
		if res.Expired(now) {
			if flights, err = s.cancelLocked(ctx, tx, res, domain.CancelReasonExpired, now); err != nil {
				return err
			}
			expired = res
			return nil
		}
		if res.Status != domain.ReservationActive {
			return notActive(res)
		}

		// a request past the last seat leaves a finished hold alone
		if err := legOpen(ctx, tx, res, input.Leg); err != nil {
			return err
		}

		compensate = true
		result, err = s.addSegmentInTx(ctx, tx, res, input.Leg, input.FlightID, input.Traveler, input.SeatID, now)
		if err != nil {
			return err
		}
		return s.checkCompletion(ctx, tx, res)
	})

	if err != nil {
		if compensate {
			s.compensate(ctx, input.ReservationID, err)
		}
		return nil, err
	}
	if expired != nil {
		s.afterCancel(ctx, expired, flights)
		return nil, expiredError(expired)
	}

	s.invalidate(ctx, result.Segment.FlightID)
	return result, nil
}

// Book creates a reservation and every traveler segment on every leg as one unit.
func (s *Service) Book(ctx context.Context, input BookInput) (details *Details, err error) {
	ctx, span := telemetry.StartSpan(ctx, "reservations.book",
		attribute.Int64("flight_id", input.FlightID),
		attribute.Int("passenger_count", input.PassengerCount),
	)
	defer func() { telemetry.End(span, err) }()

	if len(input.Travelers) != input.PassengerCount {
		return nil, domain.Validation("TRAVELER_COUNT", "number of travelers must equal passenger count")
	}

	now := s.now()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		res, err := s.createInTx(ctx, tx, input.CreateReservationInput, now)
		if err != nil {
			return err
		}
		// both legs up front, in the same order Cancel and MarkPaid take them
		legFlights := []int64{res.FlightID}
		if res.ReturnFlightID != nil {
			legFlights = append(legFlights, *res.ReturnFlightID)
		}
		if err := inventory.LockFlights(ctx, tx, legFlights...); err != nil {
			return err
		}
		for _, leg := range res.Legs() {
			for _, t := range input.Travelers {
				seatID := t.OutboundSeatID
				if leg == domain.LegReturn {
					seatID = t.ReturnSeatID
				}
				if _, err := s.addSegmentInTx(ctx, tx, res, leg, 0, t.TravelerInput, seatID, now); err != nil {
					return err
				}
			}
		}
		if err := s.checkCompletion(ctx, tx, res); err != nil {
			return err
		}
		details, err = loadDetails(ctx, tx, res)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCreate(ctx, &details.Reservation, details.Segments)
	return details, nil
}

// MarkPaid applies a confirmed payment. The expiry check and the status write
// happen under the same reservation lock, so a payment that lands after the
// deadline expires the hold instead of resurrecting it.
func (s *Service) MarkPaid(ctx context.Context, reservationID, amountCents int64) (res *domain.Reservation, err error) {
	ctx, span := telemetry.StartSpan(ctx, "reservations.mark_paid", attribute.Int64("reservation_id", reservationID))
	defer func() { telemetry.End(span, err) }()

	now := s.now()
	var (
		expired bool
		flights []int64
		seatIDs []int64
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		res, err = tx.LockReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.Expired(now) {
			expired = true
			flights, err = s.cancelLocked(ctx, tx, res, domain.CancelReasonExpired, now)
			return err
		}
		if res.Status != domain.ReservationActive {
			return notActive(res)
		}
		if amountCents != res.TotalPriceCents {
			return domain.Validation("PAYMENT_AMOUNT_MISMATCH", "payment amount does not match reservation total")
		}
		segments, err := s.requireComplete(ctx, tx, res)
		if err != nil {
			return err
		}
		seatIDs, flights = boundSeats(segments)
		if err := inventory.Confirm(ctx, tx, seatIDs); err != nil {
			return err
		}

		paidAt := now
		res.Status = domain.ReservationPaid
		res.PaidAt = &paidAt
		res.UpdatedAt = now
		return tx.UpdateReservation(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	if expired {
		s.afterCancel(ctx, res, flights)
		return nil, expiredError(res)
	}

	s.invalidate(ctx, flights...)
	s.emit(ctx, kafka.EventReservationPaid, res, seatIDs)
	return res, nil
}

// ConfirmPayment handles an inbound payment-confirmed event.
func (s *Service) ConfirmPayment(ctx context.Context, reservationID, amountCents int64, paymentRef string) (*domain.Reservation, error) {
	res, err := s.MarkPaid(ctx, reservationID, amountCents)
	if err != nil {
		return nil, err
	}
	s.logger.Info("reservation paid",
		zap.Int64("reservation_id", res.ID),
		zap.String("code", res.Code),
		zap.String("payment_ref", paymentRef),
	)
	return res, nil
}

// Cancel releases all seats of the reservation. Cancelling a cancelled reservation is a no-op.
func (s *Service) Cancel(ctx context.Context, reservationID int64) (res *domain.Reservation, err error) {
	ctx, span := telemetry.StartSpan(ctx, "reservations.cancel", attribute.Int64("reservation_id", reservationID))
	defer func() { telemetry.End(span, err) }()

	now := s.now()
	var (
		changed bool
		flights []int64
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		res, err = tx.LockReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.Status == domain.ReservationCancelled {
			return nil
		}
		reason := domain.CancelReasonUser
		if res.Expired(now) {
			reason = domain.CancelReasonExpired
		}
		changed = true
		flights, err = s.cancelLocked(ctx, tx, res, reason, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.afterCancel(ctx, res, flights)
	}
	return res, nil
}

// GetReservation returns the reservation with its segments and travelers,
// expiring it first when its hold deadline has passed.
func (s *Service) GetReservation(ctx context.Context, reservationID int64) (*Details, error) {
	var details *Details
	read := func() error {
		return s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			res, err := tx.GetReservation(ctx, reservationID)
			if err != nil {
				return err
			}
			details, err = loadDetails(ctx, tx, res)
			return err
		})
	}
	if err := read(); err != nil {
		return nil, err
	}
	if !details.Reservation.Expired(s.now()) {
		return details, nil
	}

	if _, err := s.ExpireReservation(ctx, reservationID); err != nil {
		return nil, err
	}
	if err := read(); err != nil {
		return nil, err
	}
	return details, nil
}

// GetForUser is GetReservation restricted to the reservation's owner. Other
// users get NotFound so reservation ids cannot be probed.
func (s *Service) GetForUser(ctx context.Context, reservationID int64, userID string) (*Details, error) {
	details, err := s.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if details.Reservation.UserID != userID {
		return nil, domain.NotFound("reservation")
	}
	return details, nil
}

// ExpireReservation cancels one reservation if it is an unpaid hold past its deadline.
// It reports whether this call performed the expiry.
func (s *Service) ExpireReservation(ctx context.Context, reservationID int64) (done bool, err error) {
	ctx, span := telemetry.StartSpan(ctx, "reservations.expire", attribute.Int64("reservation_id", reservationID))
	defer func() { telemetry.End(span, err) }()

	now := s.now()
	var (
		res     *domain.Reservation
		flights []int64
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		res, err = tx.LockReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if !res.Expired(now) {
			return nil
		}
		done = true
		flights, err = s.cancelLocked(ctx, tx, res, domain.CancelReasonExpired, now)
		return err
	})
	if err != nil {
		return false, err
	}
	if done {
		s.afterCancel(ctx, res, flights)
	}
	return done, nil
}

// ExpireReservations sweeps a batch of overdue holds. Each reservation is
// expired in its own unit of work; one failure does not stop the sweep.
func (s *Service) ExpireReservations(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ids, err = tx.ListExpiredReservationIDs(ctx, s.now(), s.sweepBatch)
		return err
	})
	if err != nil {
		return nil, err
	}

	var (
		expired []int64
		errs    []error
	)
	for _, id := range ids {
		done, err := s.ExpireReservation(ctx, id)
		if err != nil {
			s.logger.Error("failed to expire reservation", zap.Int64("reservation_id", id), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if done {
			expired = append(expired, id)
		}
	}
	return expired, errors.Join(errs...)
}
