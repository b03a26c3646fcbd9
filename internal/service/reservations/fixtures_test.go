package reservations

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/inventory"
	"github.com/Domenick1991/airreserve/internal/kafka"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/Domenick1991/airreserve/internal/timezones"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	args := m.Called(ctx, topic, key, payload)
	return args.Error(0)
}

// eventTypes lists the published reservation event types in order.
func (m *MockPublisher) eventTypes() []string {
	var types []string
	for _, c := range m.Calls {
		if c.Method != "Publish" {
			continue
		}
		if ev, ok := c.Arguments.Get(3).(kafka.ReservationEvent); ok {
			types = append(types, ev.Type)
		}
	}
	return types
}

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) ScheduleExpiry(ctx context.Context, reservationID int64, deadline time.Time) error {
	args := m.Called(ctx, reservationID, deadline)
	return args.Error(0)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context, flightIDs ...int64) {
	m.Called(ctx, flightIDs)
}

const eventsTopic = "reservation-events"

var (
	// base is "now" for every test unless the clock is advanced.
	base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	adultBirth = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	minorBirth = time.Date(2015, 5, 5, 0, 0, 0, 0, time.UTC)

	testLayout = inventory.Layout{Rows: 5, FirstRows: 1, Columns: []string{"A", "B", "C", "D", "E", "F"}}
)

type fixture struct {
	store    *repository.MemoryStore
	svc      *Service
	now      time.Time
	outbound *domain.Flight
	inbound  *domain.Flight
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	zones, err := timezones.NewResolver("")
	require.NoError(t, err)

	f := &fixture{store: repository.NewMemoryStore(), now: base}
	bog := &domain.City{Name: "Bogotá", Country: "CO", IsDomestic: true, Timezone: "America/Bogota"}
	mde := &domain.City{Name: "Medellín", Country: "CO", IsDomestic: true, Timezone: "America/Bogota"}
	err = f.store.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		if err := tx.InsertCity(ctx, bog); err != nil {
			return err
		}
		return tx.InsertCity(ctx, mde)
	})
	require.NoError(t, err)

	f.outbound = f.addFlight(t, *bog, *mde, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), domain.FlightStatusActive)
	f.inbound = f.addFlight(t, *mde, *bog, time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC), domain.FlightStatusActive)

	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	f.svc = NewService(f.store, zones, opts...)
	return f
}

func (f *fixture) addFlight(t *testing.T, origin, dest domain.City, departure time.Time, status domain.FlightStatus) *domain.Flight {
	t.Helper()
	flight := &domain.Flight{
		Route: domain.Route{
			Origin:          origin,
			Destination:     dest,
			FareFirstCents:  90000,
			FareSecondCents: 30000,
		},
		Status:         status,
		DepartureLocal: departure,
	}
	err := f.store.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		if err := tx.InsertRoute(ctx, &flight.Route); err != nil {
			return err
		}
		if err := tx.InsertFlight(ctx, flight); err != nil {
			return err
		}
		seats, err := inventory.GenerateSeats(flight.ID, testLayout)
		if err != nil {
			return err
		}
		return tx.InsertSeats(ctx, seats)
	})
	require.NoError(t, err)
	return flight
}

func (f *fixture) seats(t *testing.T, flightID int64) map[string]domain.Seat {
	t.Helper()
	out := make(map[string]domain.Seat)
	err := f.store.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		seats, err := tx.ListSeats(ctx, flightID)
		for _, s := range seats {
			out[s.Label()] = s
		}
		return err
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) countSeats(t *testing.T, flightID int64, status domain.SeatStatus) int {
	t.Helper()
	n := 0
	for _, s := range f.seats(t, flightID) {
		if s.Status == status {
			n++
		}
	}
	return n
}

func (f *fixture) reservation(t *testing.T, id int64) domain.Reservation {
	t.Helper()
	var res *domain.Reservation
	err := f.store.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		res, err = tx.GetReservation(ctx, id)
		return err
	})
	require.NoError(t, err)
	return *res
}

func traveler(doc string, birth time.Time) TravelerInput {
	return TravelerInput{
		Document:  doc,
		FirstName: "Ana",
		LastName:  "Gómez",
		BirthDate: birth,
		Gender:    "F",
		Email:     doc + "@example.com",
	}
}

func oneWay(f *fixture, count int) CreateReservationInput {
	return CreateReservationInput{
		UserID:         "user-1",
		FlightID:       f.outbound.ID,
		Class:          domain.ClassSecond,
		PassengerCount: count,
	}
}

// lockRecorder records the order in which a unit of work first locks each flight.
type lockRecorder struct {
	repository.Store

	mu    sync.Mutex
	order [][]int64
}

type recordingTx struct {
	repository.Tx
	seen  map[int64]bool
	order *[]int64
}

func (r *recordingTx) LockFlight(ctx context.Context, flightID int64) error {
	if !r.seen[flightID] {
		r.seen[flightID] = true
		*r.order = append(*r.order, flightID)
	}
	return r.Tx.LockFlight(ctx, flightID)
}

func (r *lockRecorder) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	var order []int64
	err := r.Store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, &recordingTx{Tx: tx, seen: make(map[int64]bool), order: &order})
	})
	if len(order) > 0 {
		r.mu.Lock()
		r.order = append(r.order, order)
		r.mu.Unlock()
	}
	return err
}

func (r *lockRecorder) reset() {
	r.mu.Lock()
	r.order = nil
	r.mu.Unlock()
}

func (r *lockRecorder) units() [][]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]int64(nil), r.order...)
}
