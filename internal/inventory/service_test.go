package inventory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type MockSeatMapCache struct {
	mock.Mock
}

func (m *MockSeatMapCache) GetSeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockSeatMapCache) SetSeatMap(ctx context.Context, flightID int64, seats []domain.Seat) error {
	args := m.Called(ctx, flightID, seats)
	return args.Error(0)
}

func (m *MockSeatMapCache) InvalidateSeatMaps(ctx context.Context, flightIDs ...int64) error {
	args := m.Called(ctx, flightIDs)
	return args.Error(0)
}

var smallLayout = Layout{Rows: 5, FirstRows: 1, Columns: []string{"A", "B", "C", "D", "E", "F"}}

// seedFlight stores one flight with the small layout: 6 FIRST seats and 24 SECOND seats.
func seedFlight(t *testing.T, store *repository.MemoryStore) (int64, []domain.Seat) {
	t.Helper()
	var (
		flightID int64
		seats    []domain.Seat
	)
	err := store.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		f := &domain.Flight{DepartureLocal: time.Now().Add(72 * time.Hour)}
		if err := tx.InsertFlight(ctx, f); err != nil {
			return err
		}
		flightID = f.ID
		var err error
		if seats, err = GenerateSeats(f.ID, smallLayout); err != nil {
			return err
		}
		return tx.InsertSeats(ctx, seats)
	})
	require.NoError(t, err)
	return flightID, seats
}

func seatByLabel(seats []domain.Seat, label string) domain.Seat {
	for _, s := range seats {
		if s.Label() == label {
			return s
		}
	}
	return domain.Seat{}
}

func countStatus(t *testing.T, svc *Service, flightID int64, class domain.CabinClass, status domain.SeatStatus) int {
	t.Helper()
	seats, err := svc.SeatMap(context.Background(), flightID)
	require.NoError(t, err)
	n := 0
	for _, s := range seats {
		if s.Class == class && s.Status == status {
			n++
		}
	}
	return n
}

func TestGenerateSeats(t *testing.T) {
	seats, err := GenerateSeats(7, smallLayout)
	require.NoError(t, err)
	assert.Len(t, seats, 30)
	assert.Equal(t, "1A", seats[0].Label())
	assert.Equal(t, domain.ClassFirst, seats[0].Class)
	assert.Equal(t, domain.ClassSecond, seats[6].Class)
	for _, s := range seats {
		assert.Equal(t, int64(7), s.FlightID)
		assert.Equal(t, domain.SeatAvailable, s.Status)
	}
}

func TestLayout_Validate(t *testing.T) {
	assert.NoError(t, DefaultLayout().Validate())
	assert.Error(t, Layout{Rows: 0, Columns: []string{"A"}}.Validate())
	assert.Error(t, Layout{Rows: 2, FirstRows: 3, Columns: []string{"A"}}.Validate())
	assert.Error(t, Layout{Rows: 2, Columns: nil}.Validate())
	assert.Error(t, Layout{Rows: 2, Columns: []string{"A", "A"}}.Validate())
	assert.Error(t, Layout{Rows: 2, Columns: []string{"Z"}}.Validate())
}

func TestService_ClaimSeats_LowestRowFirst(t *testing.T) {
	store := repository.NewMemoryStore()
	flightID, _ := seedFlight(t, store)
	svc := NewService(store)

	seats, err := svc.ClaimSeats(context.Background(), flightID, domain.ClassSecond, 3)
	require.NoError(t, err)
	require.Len(t, seats, 3)
	assert.Equal(t, "2A", seats[0].Label())
	assert.Equal(t, "2B", seats[1].Label())
	assert.Equal(t, "2C", seats[2].Label())
	for _, s := range seats {
		assert.Equal(t, domain.SeatReserved, s.Status)
	}
	assert.Equal(t, 3, countStatus(t, svc, flightID, domain.ClassSecond, domain.SeatReserved))
}

func TestService_ClaimSeats_AllOrNothing(t *testing.T) {
	store := repository.NewMemoryStore()
	flightID, _ := seedFlight(t, store)
	svc := NewService(store)

	_, err := svc.ClaimSeats(context.Background(), flightID, domain.ClassFirst, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
	assert.Equal(t, 6, countStatus(t, svc, flightID, domain.ClassFirst, domain.SeatAvailable))
}

func TestService_ClaimSeats_Invalid(t *testing.T) {
	store := repository.NewMemoryStore()
	flightID, _ := seedFlight(t, store)
	svc := NewService(store)

	_, err := svc.ClaimSeats(context.Background(), flightID, domain.ClassSecond, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ClaimSeats(context.Background(), flightID, "BUSINESS", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ClaimSeats(context.Background(), 999, domain.ClassSecond, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// With 24 SECOND seats and groups of 5, exactly 4 of 10 concurrent claims succeed.
func TestService_ClaimSeats_Concurrent(t *testing.T) {
	store := repository.NewMemoryStore()
	flightID, _ := seedFlight(t, store)
	svc := NewService(store)

	var ok, conflicts int32
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := svc.ClaimSeats(ctx, flightID, domain.ClassSecond, 5)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, domain.ErrInsufficientInventory):
				atomic.AddInt32(&conflicts, 1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(4), ok)
	assert.Equal(t, int32(6), conflicts)
	assert.Equal(t, 20, countStatus(t, svc, flightID, domain.ClassSecond, domain.SeatReserved))
	assert.Equal(t, 4, countStatus(t, svc, flightID, domain.ClassSecond, domain.SeatAvailable))
}

func TestService_ConfirmAndRelease(t *testing.T) {
	store := repository.NewMemoryStore()
	flightID, _ := seedFlight(t, store)
	svc := NewService(store)
	ctx := context.Background()
	before := seatStates(t, svc, flightID)
	require.NotEmpty(t, before)

	seats, err := svc.ClaimSeats(ctx, flightID, domain.ClassFirst, 2)
	require.NoError(t, err)
	ids := []int64{seats[0].ID, seats[1].ID}

	require.NoError(t, svc.ConfirmSeats(ctx, ids))
	assert.Equal(t, 2, countStatus(t, svc, flightID, domain.ClassFirst, domain.SeatOccupied))

	// confirming again leaves OCCUPIED seats alone
	require.NoError(t, svc.ConfirmSeats(ctx, ids))

	require.NoError(t, svc.ReleaseSeats(ctx, ids))
	assert.Equal(t, 6, countStatus(t, svc, flightID, domain.ClassFirst, domain.SeatAvailable))
	assert.Equal(t, before, seatStates(t, svc, flightID))

	// releasing AVAILABLE seats is a no-op
	require.NoError(t, svc.ReleaseSeats(ctx, ids))

	err = svc.ConfirmSeats(ctx, ids)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestService_ChangeSeat(t *testing.T) {
	store := repository.NewMemoryStore()
	flightID, seats := seedFlight(t, store)
	svc := NewService(store)
	ctx := context.Background()

	claimed, err := svc.ClaimSeats(ctx, flightID, domain.ClassSecond, 1)
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmSeats(ctx, []int64{claimed[0].ID}))

	target := seatByLabel(seats, "5F")
	seat, err := svc.ChangeSeat(ctx, claimed[0].ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "5F", seat.Label())
	assert.Equal(t, domain.SeatOccupied, seat.Status)

	m, err := svc.SeatMap(ctx, flightID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatAvailable, seatByLabel(m, claimed[0].Label()).Status)
	assert.Equal(t, domain.SeatOccupied, seatByLabel(m, "5F").Status)
}

func TestService_ChangeSeat_Denied(t *testing.T) {
	store := repository.NewMemoryStore()
	flightID, seats := seedFlight(t, store)
	otherFlight, otherSeats := seedFlight(t, store)
	svc := NewService(store)
	ctx := context.Background()

	held, err := svc.ClaimSeats(ctx, flightID, domain.ClassSecond, 2)
	require.NoError(t, err)
	_, err = svc.ClaimSeats(ctx, otherFlight, domain.ClassSecond, 1)
	require.NoError(t, err)

	_, err = svc.ChangeSeat(ctx, held[0].ID, seatByLabel(seats, "1A").ID)
	assert.Equal(t, "DIFFERENT_CLASS", domain.CodeOf(err))
	assert.Equal(t, "different class", err.Error())

	_, err = svc.ChangeSeat(ctx, held[0].ID, seatByLabel(otherSeats, "3A").ID)
	assert.Equal(t, "DIFFERENT_FLIGHT", domain.CodeOf(err))

	_, err = svc.ChangeSeat(ctx, held[0].ID, held[1].ID)
	assert.ErrorIs(t, err, domain.ErrSeatUnavailable)

	_, err = svc.ChangeSeat(ctx, held[0].ID, held[0].ID)
	assert.Equal(t, "SAME_SEAT", domain.CodeOf(err))

	_, err = svc.ChangeSeat(ctx, seatByLabel(seats, "4A").ID, seatByLabel(seats, "4B").ID)
	assert.Equal(t, "SEAT_NOT_HELD", domain.CodeOf(err))
}

func TestService_SeatMap_ReadThroughCache(t *testing.T) {
	store := repository.NewMemoryStore()
	flightID, _ := seedFlight(t, store)
	cache := &MockSeatMapCache{}
	svc := NewService(store, WithCache(cache))
	ctx := context.Background()

	cache.On("GetSeatMap", ctx, flightID).Return(nil, nil).Once()
	cache.On("SetSeatMap", ctx, flightID, mock.Anything).Return(nil).Once()

	seats, err := svc.SeatMap(ctx, flightID)
	require.NoError(t, err)
	assert.Len(t, seats, 30)

	cached := seats[:2]
	cache.On("GetSeatMap", ctx, flightID).Return(cached, nil).Once()
	seats, err = svc.SeatMap(ctx, flightID)
	require.NoError(t, err)
	assert.Equal(t, cached, seats)

	cache.AssertExpectations(t)
}

func TestService_ClaimSeats_InvalidatesCache(t *testing.T) {
	store := repository.NewMemoryStore()
	flightID, _ := seedFlight(t, store)
	cache := &MockSeatMapCache{}
	svc := NewService(store, WithCache(cache))
	ctx := context.Background()

	cache.On("InvalidateSeatMaps", mock.Anything, []int64{flightID}).Return(errors.New("redis down")).Once()

	_, err := svc.ClaimSeats(ctx, flightID, domain.ClassSecond, 1)
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestService_SeatMap_ConcurrentMisses(t *testing.T) {
	store := repository.NewMemoryStore()
	flightID, _ := seedFlight(t, store)
	svc := NewService(store)

	results := make([][]domain.Seat, 8)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range results {
		g.Go(func() error {
			seats, err := svc.SeatMap(ctx, flightID)
			results[i] = seats
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, seats := range results {
		assert.Len(t, seats, 30)
	}
}

func TestService_SeatMap_UnknownFlight(t *testing.T) {
	svc := NewService(repository.NewMemoryStore())

	_, err := svc.SeatMap(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// seatStates maps every seat id of the flight to its status.
func seatStates(t *testing.T, svc *Service, flightID int64) map[int64]domain.SeatStatus {
	t.Helper()
	seats, err := svc.SeatMap(context.Background(), flightID)
	require.NoError(t, err)
	out := make(map[int64]domain.SeatStatus, len(seats))
	for _, s := range seats {
		out[s.ID] = s.Status
	}
	return out
}
