package inventory

import (
	"context"
	"strconv"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/Domenick1991/airreserve/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type InventoryUseCase interface {
	CreateSeats(ctx context.Context, flightID int64, layout Layout) ([]domain.Seat, error)
	ClaimSeats(ctx context.Context, flightID int64, class domain.CabinClass, count int) ([]domain.Seat, error)
	ConfirmSeats(ctx context.Context, seatIDs []int64) error
	ReleaseSeats(ctx context.Context, seatIDs []int64) error
	ChangeSeat(ctx context.Context, oldSeatID, newSeatID int64) (*domain.Seat, error)
	SeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error)
}

// SeatMapCache is a read-through cache of seat maps; it is never the source of truth.
type SeatMapCache interface {
	GetSeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error)
	SetSeatMap(ctx context.Context, flightID int64, seats []domain.Seat) error
	InvalidateSeatMaps(ctx context.Context, flightIDs ...int64) error
}

type Service struct {
	store  repository.Store
	cache  SeatMapCache
	logger *zap.Logger
	// loads collapses concurrent seat map misses for the same flight.
	loads singleflight.Group
}

type ServiceOption func(*Service)

func WithCache(cache SeatMapCache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store repository.Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateSeats(ctx context.Context, flightID int64, layout Layout) ([]domain.Seat, error) {
	seats, err := GenerateSeats(flightID, layout)
	if err != nil {
		return nil, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.LockFlight(ctx, flightID); err != nil {
			return err
		}
		return tx.InsertSeats(ctx, seats)
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, flightID)
	return seats, nil
}

func (s *Service) ClaimSeats(ctx context.Context, flightID int64, class domain.CabinClass, count int) (seats []domain.Seat, err error) {
	ctx, span := telemetry.StartSpan(ctx, "inventory.claim_seats",
		attribute.Int64("flight_id", flightID),
		attribute.String("class", string(class)),
		attribute.Int("count", count),
	)
	defer func() { telemetry.End(span, err) }()

	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		seats, err = Claim(ctx, tx, flightID, class, count)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, flightID)
	return seats, nil
}

func (s *Service) ConfirmSeats(ctx context.Context, seatIDs []int64) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "inventory.confirm_seats", attribute.Int("count", len(seatIDs)))
	defer func() { telemetry.End(span, err) }()

	var flights []int64
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if flights, err = flightsOf(ctx, tx, seatIDs); err != nil {
			return err
		}
		return Confirm(ctx, tx, seatIDs)
	})
	if err != nil {
		return err
	}
	s.Invalidate(ctx, flights...)
	return nil
}

func (s *Service) ReleaseSeats(ctx context.Context, seatIDs []int64) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "inventory.release_seats", attribute.Int("count", len(seatIDs)))
	defer func() { telemetry.End(span, err) }()

	var flights []int64
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if flights, err = flightsOf(ctx, tx, seatIDs); err != nil {
			return err
		}
		return Release(ctx, tx, seatIDs)
	})
	if err != nil {
		return err
	}
	s.Invalidate(ctx, flights...)
	return nil
}

func (s *Service) ChangeSeat(ctx context.Context, oldSeatID, newSeatID int64) (seat *domain.Seat, err error) {
	ctx, span := telemetry.StartSpan(ctx, "inventory.change_seat",
		attribute.Int64("old_seat_id", oldSeatID),
		attribute.Int64("new_seat_id", newSeatID),
	)
	defer func() { telemetry.End(span, err) }()

	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		seat, err = Change(ctx, tx, oldSeatID, newSeatID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, seat.FlightID)
	return seat, nil
}

func (s *Service) SeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSeatMap(ctx, flightID); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.logger.Warn("seat map cache read failed", zap.Int64("flight_id", flightID), zap.Error(err))
		}
	}

	v, err, _ := s.loads.Do(strconv.FormatInt(flightID, 10), func() (interface{}, error) {
		return s.loadSeatMap(ctx, flightID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Seat), nil
}

func (s *Service) loadSeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	var seats []domain.Seat
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetFlight(ctx, flightID); err != nil {
			return err
		}
		var err error
		seats, err = tx.ListSeats(ctx, flightID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetSeatMap(ctx, flightID, seats); err != nil {
			s.logger.Warn("seat map cache write failed", zap.Int64("flight_id", flightID), zap.Error(err))
		}
	}
	return seats, nil
}

// Invalidate drops cached seat maps after a committed mutation.
func (s *Service) Invalidate(ctx context.Context, flightIDs ...int64) {
	if s.cache == nil || len(flightIDs) == 0 {
		return
	}
	if err := s.cache.InvalidateSeatMaps(ctx, flightIDs...); err != nil {
		s.logger.Warn("seat map cache invalidation failed", zap.Int64s("flight_ids", flightIDs), zap.Error(err))
	}
}

func flightsOf(ctx context.Context, tx repository.SeatTx, seatIDs []int64) ([]int64, error) {
	seen := make(map[int64]bool)
	flights := make([]int64, 0, 1)
	for _, id := range seatIDs {
		seat, err := tx.GetSeat(ctx, id)
		if err != nil {
			return nil, err
		}
		if !seen[seat.FlightID] {
			seen[seat.FlightID] = true
			flights = append(flights, seat.FlightID)
		}
	}
	return flights, nil
}

var _ InventoryUseCase = (*Service)(nil)
