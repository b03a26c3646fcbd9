package seatchange

import (
	"context"
	"strconv"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/inventory"
	"github.com/Domenick1991/airreserve/internal/kafka"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/Domenick1991/airreserve/internal/telemetry"
	"github.com/Domenick1991/airreserve/internal/timezones"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	ReasonNotPaid  = "reservation not paid"
	ReasonDeparted = "flight already departed"
	ReasonNoSeat   = "segment has no seat"
)

type SeatChangeUseCase interface {
	CanChangeSeat(ctx context.Context, req Request) (Decision, error)
	ChangeSeat(ctx context.Context, req Request) (*Result, error)
}

type Request struct {
	// UserID restricts the change to the reservation owner; empty skips the check.
	UserID    string `json:"-"`
	SegmentID int64  `json:"segment_id"`
	// NewSeatID may be zero for CanChangeSeat, which then checks only the reservation and flight.
	NewSeatID int64 `json:"new_seat_id"`
}

// Decision is the outcome of a seat change check. Reason is user facing.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type Result struct {
	Segment domain.Segment `json:"segment"`
	OldSeat domain.Seat    `json:"old_seat"`
	NewSeat domain.Seat    `json:"new_seat"`
}

type ZoneResolver interface {
	CityLocation(c domain.City) (*time.Location, timezones.Resolution, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

type SeatMapInvalidator interface {
	Invalidate(ctx context.Context, flightIDs ...int64)
}

type Service struct {
	store       repository.Store
	zones       ZoneResolver
	publisher   Publisher
	eventsTopic string
	seatMaps    SeatMapInvalidator
	logger      *zap.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithEvents(publisher Publisher, topic string) Option {
	return func(s *Service) {
		s.publisher = publisher
		s.eventsTopic = topic
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

func NewService(store repository.Store, zones ZoneResolver, opts ...Option) *Service {
	s := &Service{store: store, zones: zones, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ SeatChangeUseCase = (*Service)(nil)

// CanChangeSeat reports whether the segment may move to the requested seat.
func (s *Service) CanChangeSeat(ctx context.Context, req Request) (Decision, error) {
	var decision Decision
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		seg, err := tx.GetSegment(ctx, req.SegmentID)
		if err != nil {
			return err
		}
		res, err := tx.GetReservation(ctx, seg.ReservationID)
		if err != nil {
			return err
		}
		if !owns(req.UserID, res) {
			return domain.NotFound("segment")
		}
		decision, _, _, err = s.evaluate(ctx, tx, res, seg, req.NewSeatID)
		return err
	})
	if err != nil {
		return Decision{}, err
	}
	return decision, nil
}

// ChangeSeat moves a paid segment to another seat of the same flight and class.
// A denial is returned as a domain error carrying the decision's code and reason.
func (s *Service) ChangeSeat(ctx context.Context, req Request) (result *Result, err error) {
	ctx, span := telemetry.StartSpan(ctx, "seatchange.change_seat",
		attribute.Int64("segment_id", req.SegmentID),
		attribute.Int64("new_seat_id", req.NewSeatID),
	)
	defer func() { telemetry.End(span, err) }()

	segmentID, newSeatID := req.SegmentID, req.NewSeatID
	if newSeatID <= 0 {
		return nil, domain.Validation("SEAT_REQUIRED", "new seat id is required")
	}

	var res *domain.Reservation
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		seg, err := tx.GetSegment(ctx, segmentID)
		if err != nil {
			return err
		}
		// Segments only change under their reservation's lock; re-read after taking it.
		if res, err = tx.LockReservation(ctx, seg.ReservationID); err != nil {
			return err
		}
		if !owns(req.UserID, res) {
			return domain.NotFound("segment")
		}
		if seg, err = tx.GetSegment(ctx, segmentID); err != nil {
			return err
		}

		decision, current, _, err := s.evaluate(ctx, tx, res, seg, newSeatID)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return denial(decision)
		}

		newSeat, err := inventory.Change(ctx, tx, current.ID, newSeatID)
		if err != nil {
			return err
		}
		seg.SeatID = &newSeat.ID
		if err := tx.UpdateSegment(ctx, seg); err != nil {
			return err
		}
		oldSeat := *current
		oldSeat.Status = domain.SeatAvailable
		result = &Result{Segment: *seg, OldSeat: oldSeat, NewSeat: *newSeat}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.seatMaps != nil {
		s.seatMaps.Invalidate(ctx, result.Segment.FlightID)
	}
	s.emit(ctx, res, result)
	s.logger.Info("seat changed",
		zap.Int64("segment_id", segmentID),
		zap.String("from", result.OldSeat.Label()),
		zap.String("to", result.NewSeat.Label()),
	)
	return result, nil
}

func (s *Service) evaluate(ctx context.Context, tx repository.Tx, res *domain.Reservation, seg *domain.Segment, newSeatID int64) (Decision, *domain.Seat, *domain.Seat, error) {
	if res.Status != domain.ReservationPaid || !seg.Active {
		return deny("RESERVATION_NOT_PAID", ReasonNotPaid), nil, nil, nil
	}
	if seg.SeatID == nil {
		return deny("SEGMENT_WITHOUT_SEAT", ReasonNoSeat), nil, nil, nil
	}

	flight, err := tx.GetFlight(ctx, seg.FlightID)
	if err != nil {
		return Decision{}, nil, nil, err
	}
	loc, _, err := s.zones.CityLocation(flight.Route.Origin)
	if err != nil {
		return Decision{}, nil, nil, err
	}
	if !flight.DepartureIn(loc).After(s.now()) {
		return deny("FLIGHT_DEPARTED", ReasonDeparted), nil, nil, nil
	}

	current, err := tx.GetSeat(ctx, *seg.SeatID)
	if err != nil {
		return Decision{}, nil, nil, err
	}
	if newSeatID == 0 {
		return Decision{Allowed: true}, current, nil, nil
	}
	target, err := tx.GetSeat(ctx, newSeatID)
	if err != nil {
		return Decision{}, nil, nil, err
	}
	if err := inventory.CheckChange(*current, *target); err != nil {
		return deny(domain.CodeOf(err), err.Error()), current, target, nil
	}
	return Decision{Allowed: true}, current, target, nil
}

func (s *Service) emit(ctx context.Context, res *domain.Reservation, result *Result) {
	if s.publisher == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.ReservationEvent{
		Type:           kafka.EventSeatChanged,
		ReservationID:  res.ID,
		Code:           res.Code,
		UserID:         res.UserID,
		FlightID:       result.Segment.FlightID,
		ReturnFlightID: res.ReturnFlightID,
		Status:         string(res.Status),
		SeatIDs:        []int64{result.OldSeat.ID, result.NewSeat.ID},
		ExpiresAt:      res.ExpiresAt,
		OccurredAt:     s.now(),
	}
	if err := s.publisher.Publish(ctx, s.eventsTopic, strconv.FormatInt(res.ID, 10), event); err != nil {
		s.logger.Warn("failed to publish seat change event", zap.Int64("reservation_id", res.ID), zap.Error(err))
	}
}

func owns(userID string, res *domain.Reservation) bool {
	return userID == "" || res.UserID == userID
}

func deny(code, reason string) Decision {
	return Decision{Allowed: false, Code: code, Reason: reason}
}

func denial(d Decision) error {
	switch d.Code {
	case "SEAT_NOT_AVAILABLE":
		return domain.SeatUnavailable(d.Reason)
	case "DIFFERENT_CLASS", "DIFFERENT_FLIGHT":
		return domain.Validation(d.Code, d.Reason)
	default:
		return domain.StateConflict(d.Code, d.Reason)
	}
}
