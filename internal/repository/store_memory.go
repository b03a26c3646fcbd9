package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
)

// MemoryStore keeps all state in process. A single mutex is held for the whole
// unit of work, which is stricter than per-flight locking; failed units are
// undone from a journal.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64

	cities       map[int64]domain.City
	routes       map[int64]domain.Route
	flights      map[int64]domain.Flight
	seats        map[int64]domain.Seat
	reservations map[int64]domain.Reservation
	travelers    map[int64]domain.Traveler
	segments     map[int64]domain.Segment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cities:       make(map[int64]domain.City),
		routes:       make(map[int64]domain.Route),
		flights:      make(map[int64]domain.Flight),
		seats:        make(map[int64]domain.Seat),
		reservations: make(map[int64]domain.Reservation),
		travelers:    make(map[int64]domain.Traveler),
		segments:     make(map[int64]domain.Segment),
	}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{s: s}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

type memoryTx struct {
	s    *MemoryStore
	undo []func()
}

func (t *memoryTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memoryTx) id() int64 {
	t.s.nextID++
	return t.s.nextID
}

// put stores v under id in m, journaling the previous value.
func put[V any](t *memoryTx, m map[int64]V, id int64, v V) {
	prev, existed := m[id]
	t.undo = append(t.undo, func() {
		if existed {
			m[id] = prev
		} else {
			delete(m, id)
		}
	})
	m[id] = v
}

func (t *memoryTx) InsertCity(_ context.Context, city *domain.City) error {
	if city.ID == 0 {
		city.ID = t.id()
	}
	put(t, t.s.cities, city.ID, *city)
	return nil
}

func (t *memoryTx) InsertRoute(_ context.Context, route *domain.Route) error {
	if route.ID == 0 {
		route.ID = t.id()
	}
	put(t, t.s.routes, route.ID, *route)
	return nil
}

func (t *memoryTx) InsertFlight(_ context.Context, flight *domain.Flight) error {
	now := time.Now()
	if flight.ID == 0 {
		flight.ID = t.id()
	}
	if flight.Status == "" {
		flight.Status = domain.FlightStatusActive
	}
	flight.CreatedAt, flight.UpdatedAt = now, now
	put(t, t.s.flights, flight.ID, *flight)
	return nil
}

func (t *memoryTx) GetFlight(_ context.Context, id int64) (*domain.Flight, error) {
	f, ok := t.s.flights[id]
	if !ok {
		return nil, domain.NotFound("flight")
	}
	return &f, nil
}

func (t *memoryTx) ListFlights(_ context.Context) ([]domain.Flight, error) {
	flights := make([]domain.Flight, 0, len(t.s.flights))
	for _, f := range t.s.flights {
		flights = append(flights, f)
	}
	sort.Slice(flights, func(i, j int) bool {
		if !flights[i].DepartureLocal.Equal(flights[j].DepartureLocal) {
			return flights[i].DepartureLocal.Before(flights[j].DepartureLocal)
		}
		return flights[i].ID < flights[j].ID
	})
	return flights, nil
}

func (t *memoryTx) LockFlight(_ context.Context, flightID int64) error {
	if _, ok := t.s.flights[flightID]; !ok {
		return domain.NotFound("flight")
	}
	return nil
}

func (t *memoryTx) InsertSeats(_ context.Context, seats []domain.Seat) error {
	taken := make(map[string]bool)
	for _, s := range t.s.seats {
		if len(seats) > 0 && s.FlightID == seats[0].FlightID {
			taken[s.Label()] = true
		}
	}
	for i := range seats {
		if taken[seats[i].Label()] {
			return domain.Validation("SEAT_EXISTS", "seat "+seats[i].Label()+" already exists")
		}
		taken[seats[i].Label()] = true
		if seats[i].ID == 0 {
			seats[i].ID = t.id()
		}
		put(t, t.s.seats, seats[i].ID, seats[i])
	}
	return nil
}

func (t *memoryTx) ListSeats(_ context.Context, flightID int64) ([]domain.Seat, error) {
	seats := make([]domain.Seat, 0)
	for _, s := range t.s.seats {
		if s.FlightID == flightID {
			seats = append(seats, s)
		}
	}
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Column < seats[j].Column
	})
	return seats, nil
}

func (t *memoryTx) GetSeat(_ context.Context, id int64) (*domain.Seat, error) {
	s, ok := t.s.seats[id]
	if !ok {
		return nil, domain.NotFound("seat")
	}
	return &s, nil
}

func (t *memoryTx) SetSeatStatus(_ context.Context, id int64, status domain.SeatStatus) error {
	s, ok := t.s.seats[id]
	if !ok {
		return domain.NotFound("seat")
	}
	s.Status = status
	put(t, t.s.seats, id, s)
	return nil
}

func (t *memoryTx) InsertReservation(_ context.Context, r *domain.Reservation) error {
	now := time.Now()
	if r.ID == 0 {
		r.ID = t.id()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = r.CreatedAt
	put(t, t.s.reservations, r.ID, *r)
	return nil
}

func (t *memoryTx) LockReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	return t.GetReservation(ctx, id)
}

func (t *memoryTx) GetReservation(_ context.Context, id int64) (*domain.Reservation, error) {
	r, ok := t.s.reservations[id]
	if !ok {
		return nil, domain.NotFound("reservation")
	}
	return &r, nil
}

func (t *memoryTx) UpdateReservation(_ context.Context, r *domain.Reservation) error {
	if _, ok := t.s.reservations[r.ID]; !ok {
		return domain.NotFound("reservation")
	}
	r.UpdatedAt = time.Now()
	put(t, t.s.reservations, r.ID, *r)
	return nil
}

func (t *memoryTx) ListExpiredReservationIDs(_ context.Context, now time.Time, limit int) ([]int64, error) {
	ids := make([]int64, 0)
	for _, r := range t.s.reservations {
		if r.Expired(now) {
			ids = append(ids, r.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (t *memoryTx) InsertTraveler(_ context.Context, tr *domain.Traveler) error {
	if tr.ID == 0 {
		tr.ID = t.id()
	}
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = time.Now()
	}
	put(t, t.s.travelers, tr.ID, *tr)
	return nil
}

func (t *memoryTx) FindTraveler(_ context.Context, reservationID int64, document string) (*domain.Traveler, error) {
	for _, tr := range t.s.travelers {
		if tr.ReservationID == reservationID && tr.Document == document {
			return &tr, nil
		}
	}
	return nil, domain.NotFound("traveler")
}

func (t *memoryTx) ListTravelers(_ context.Context, reservationID int64) ([]domain.Traveler, error) {
	travelers := make([]domain.Traveler, 0)
	for _, tr := range t.s.travelers {
		if tr.ReservationID == reservationID {
			travelers = append(travelers, tr)
		}
	}
	sort.Slice(travelers, func(i, j int) bool { return travelers[i].ID < travelers[j].ID })
	return travelers, nil
}

func (t *memoryTx) InsertSegment(_ context.Context, seg *domain.Segment) error {
	if seg.ID == 0 {
		seg.ID = t.id()
	}
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = time.Now()
	}
	if err := t.checkSegmentUnique(*seg); err != nil {
		return err
	}
	put(t, t.s.segments, seg.ID, *seg)
	return nil
}

func (t *memoryTx) GetSegment(_ context.Context, id int64) (*domain.Segment, error) {
	seg, ok := t.s.segments[id]
	if !ok {
		return nil, domain.NotFound("segment")
	}
	return &seg, nil
}

func (t *memoryTx) ListSegments(_ context.Context, reservationID int64) ([]domain.Segment, error) {
	segments := make([]domain.Segment, 0)
	for _, seg := range t.s.segments {
		if seg.ReservationID == reservationID {
			segments = append(segments, seg)
		}
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].ID < segments[j].ID })
	return segments, nil
}

func (t *memoryTx) UpdateSegment(_ context.Context, seg *domain.Segment) error {
	if _, ok := t.s.segments[seg.ID]; !ok {
		return domain.NotFound("segment")
	}
	if err := t.checkSegmentUnique(*seg); err != nil {
		return err
	}
	put(t, t.s.segments, seg.ID, *seg)
	return nil
}

func (t *memoryTx) HasActiveSegment(_ context.Context, document string, flightID int64) (bool, error) {
	for _, seg := range t.s.segments {
		if !seg.Active || seg.FlightID != flightID {
			continue
		}
		if tr, ok := t.s.travelers[seg.TravelerID]; ok && tr.Document == document {
			return true, nil
		}
	}
	return false, nil
}

// checkSegmentUnique mirrors the partial unique indexes of the Postgres schema.
func (t *memoryTx) checkSegmentUnique(seg domain.Segment) error {
	if !seg.Active {
		return nil
	}
	doc := t.s.travelers[seg.TravelerID].Document
	for _, other := range t.s.segments {
		if other.ID == seg.ID || !other.Active {
			continue
		}
		if seg.SeatID != nil && other.SeatID != nil && *seg.SeatID == *other.SeatID {
			return domain.SeatUnavailable("seat is already bound to another segment")
		}
		if other.FlightID == seg.FlightID && t.s.travelers[other.TravelerID].Document == doc {
			return domain.DuplicateBooking("traveler " + doc + " already holds a seat on this flight")
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
var _ Tx = (*memoryTx)(nil)
