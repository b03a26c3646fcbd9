package flights

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/durations"
	"github.com/Domenick1991/airreserve/internal/inventory"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/Domenick1991/airreserve/internal/timezones"
	"go.uber.org/zap"
)

// UnknownDuration is shown in place of a duration the graph has no edge for.
const UnknownDuration = "unknown"

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	CreateFlight(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
	Schedule(ctx context.Context, flightID int64) (*Schedule, error)
	RouteDuration(ctx context.Context, origin, destination string) (*RouteDuration, error)
	LocalTimes(ctx context.Context, flightID int64, at time.Time) (*LocalTimes, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type DurationGraph interface {
	Lookup(origin, dest string) (int, error)
}

type ZoneResolver interface {
	CityLocation(c domain.City) (*time.Location, timezones.Resolution, error)
	OffsetDifference(tzA, tzB string, at time.Time) (int, error)
	RenderLocal(instant time.Time, tz string) (timezones.LocalTime, error)
}

type CreateFlightInput struct {
	Origin          domain.City      `json:"origin"`
	Destination     domain.City      `json:"destination"`
	FareFirstCents  int64            `json:"fare_first_cents"`
	FareSecondCents int64            `json:"fare_second_cents"`
	DepartureLocal  time.Time        `json:"departure_local"`
	DiscountPercent int              `json:"discount_percent"`
	Layout          inventory.Layout `json:"layout"`
}

// Schedule is a flight rendered in the local time of each endpoint.
type Schedule struct {
	FlightID    int64                `json:"flight_id"`
	Origin      string               `json:"origin"`
	Destination string               `json:"destination"`
	Nationality domain.Nationality   `json:"nationality"`
	Departure   timezones.LocalTime  `json:"departure"`
	Arrival     *timezones.LocalTime `json:"arrival,omitempty"`
	// DurationMinutes is nil when the route has no known duration.
	DurationMinutes         *int   `json:"duration_minutes,omitempty"`
	Duration                string `json:"duration"`
	OffsetDifferenceMinutes int    `json:"offset_difference_minutes"`
	TimezoneFallback        bool   `json:"timezone_fallback"`
}

type RouteDuration struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Minutes     int    `json:"minutes"`
	Formatted   string `json:"formatted"`
}

type LocalTimes struct {
	FlightID                int64               `json:"flight_id"`
	At                      time.Time           `json:"at"`
	Origin                  timezones.LocalTime `json:"origin"`
	Destination             timezones.LocalTime `json:"destination"`
	OffsetDifferenceMinutes int                 `json:"offset_difference_minutes"`
}

type FlightService struct {
	store  repository.Store
	graph  DurationGraph
	zones  ZoneResolver
	cache  FlightCache
	logger *zap.Logger
}

type Option func(*FlightService)

func WithCache(cache FlightCache) Option {
	return func(s *FlightService) {
		s.cache = cache
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *FlightService) {
		s.logger = logger
	}
}

func NewFlightService(store repository.Store, graph DurationGraph, zones ZoneResolver, opts ...Option) *FlightService {
	s := &FlightService{store: store, graph: graph, zones: zones, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ FlightUseCase = (*FlightService)(nil)

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	var flights []domain.Flight
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		flights, err = tx.ListFlights(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.logger.Warn("flights cache write failed", zap.Error(err))
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	var flight *domain.Flight
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		flight, err = tx.GetFlight(ctx, id)
		return err
	})
	return flight, err
}

// CreateFlight registers the route's cities, the route, the flight and its seat grid together.
func (s *FlightService) CreateFlight(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	route := domain.Route{
		Origin:          input.Origin,
		Destination:     input.Destination,
		FareFirstCents:  input.FareFirstCents,
		FareSecondCents: input.FareSecondCents,
	}
	if err := route.Validate(); err != nil {
		return nil, err
	}
	if input.DiscountPercent < 0 || input.DiscountPercent >= 100 {
		return nil, domain.Validation("DISCOUNT", "discount percent must be in [0, 100)")
	}
	layout := input.Layout
	if layout.Rows == 0 {
		layout = inventory.DefaultLayout()
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	flight := &domain.Flight{
		Status:          domain.FlightStatusActive,
		DepartureLocal:  input.DepartureLocal,
		DiscountPercent: input.DiscountPercent,
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.InsertCity(ctx, &route.Origin); err != nil {
			return fmt.Errorf("insert origin city: %w", err)
		}
		if err := tx.InsertCity(ctx, &route.Destination); err != nil {
			return fmt.Errorf("insert destination city: %w", err)
		}
		if err := tx.InsertRoute(ctx, &route); err != nil {
			return fmt.Errorf("insert route: %w", err)
		}
		flight.Route = route
		if err := tx.InsertFlight(ctx, flight); err != nil {
			return fmt.Errorf("insert flight: %w", err)
		}
		seats, err := inventory.GenerateSeats(flight.ID, layout)
		if err != nil {
			return err
		}
		return tx.InsertSeats(ctx, seats)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.logger.Warn("flights cache reset failed", zap.Error(err))
		}
	}
	return flight, nil
}

// Schedule derives the arrival from the duration graph; nothing about arrival is stored.
func (s *FlightService) Schedule(ctx context.Context, flightID int64) (*Schedule, error) {
	flight, err := s.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	origin, dest := flight.Route.Origin, flight.Route.Destination

	originLoc, originRes, err := s.zones.CityLocation(origin)
	if err != nil {
		return nil, err
	}
	_, destRes, err := s.zones.CityLocation(dest)
	if err != nil {
		return nil, err
	}

	departure := flight.DepartureIn(originLoc)
	depLocal, err := s.zones.RenderLocal(departure, originRes.TimezoneID)
	if err != nil {
		return nil, err
	}

	out := &Schedule{
		FlightID:         flight.ID,
		Origin:           origin.Name,
		Destination:      dest.Name,
		Nationality:      flight.Route.Nationality(),
		Departure:        depLocal,
		Duration:         UnknownDuration,
		TimezoneFallback: originRes.Fallback || destRes.Fallback,
	}

	minutes, err := s.graph.Lookup(origin.Name, dest.Name)
	switch {
	case err == nil:
		arrival := departure.Add(time.Duration(minutes) * time.Minute)
		arrLocal, err := s.zones.RenderLocal(arrival, destRes.TimezoneID)
		if err != nil {
			return nil, err
		}
		out.Arrival = &arrLocal
		out.DurationMinutes = &minutes
		out.Duration = durations.FormatDuration(minutes)
		if out.OffsetDifferenceMinutes, err = s.zones.OffsetDifference(originRes.TimezoneID, destRes.TimezoneID, arrival); err != nil {
			return nil, err
		}
	case domain.KindOf(err) == domain.KindDataGap:
		s.logger.Warn("route has no known duration",
			zap.Int64("flight_id", flight.ID),
			zap.String("origin", origin.Name),
			zap.String("destination", dest.Name),
		)
		if out.OffsetDifferenceMinutes, err = s.zones.OffsetDifference(originRes.TimezoneID, destRes.TimezoneID, departure); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return out, nil
}

// RouteDuration looks up a directed city pair. A missing edge is a DataGap error.
func (s *FlightService) RouteDuration(_ context.Context, origin, destination string) (*RouteDuration, error) {
	minutes, err := s.graph.Lookup(origin, destination)
	if err != nil {
		return nil, err
	}
	return &RouteDuration{
		Origin:      origin,
		Destination: destination,
		Minutes:     minutes,
		Formatted:   durations.FormatDuration(minutes),
	}, nil
}

// LocalTimes renders the instant at both ends of the flight's route.
func (s *FlightService) LocalTimes(ctx context.Context, flightID int64, at time.Time) (*LocalTimes, error) {
	flight, err := s.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	_, originRes, err := s.zones.CityLocation(flight.Route.Origin)
	if err != nil {
		return nil, err
	}
	_, destRes, err := s.zones.CityLocation(flight.Route.Destination)
	if err != nil {
		return nil, err
	}

	originLocal, err := s.zones.RenderLocal(at, originRes.TimezoneID)
	if err != nil {
		return nil, err
	}
	destLocal, err := s.zones.RenderLocal(at, destRes.TimezoneID)
	if err != nil {
		return nil, err
	}
	diff, err := s.zones.OffsetDifference(originRes.TimezoneID, destRes.TimezoneID, at)
	if err != nil {
		return nil, err
	}
	return &LocalTimes{
		FlightID:                flight.ID,
		At:                      at.UTC(),
		Origin:                  originLocal,
		Destination:             destLocal,
		OffsetDifferenceMinutes: diff,
	}, nil
}
