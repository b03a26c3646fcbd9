package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func city(id int64, name string, domestic bool) City {
	return City{ID: id, Name: name, IsDomestic: domestic}
}

func TestRoute_Nationality(t *testing.T) {
	bog := city(1, "Bogotá", true)
	mde := city(2, "Medellín", true)
	mad := city(3, "Madrid", false)
	mia := city(4, "Miami", false)

	assert.Equal(t, NationalityDomestic, Route{Origin: bog, Destination: mde}.Nationality())
	assert.Equal(t, NationalityInternational, Route{Origin: bog, Destination: mad}.Nationality())
	assert.Equal(t, NationalityInbound, Route{Origin: mad, Destination: bog}.Nationality())
	assert.Equal(t, NationalityInvalid, Route{Origin: mad, Destination: mia}.Nationality())
}

func TestRoute_Validate(t *testing.T) {
	bog := city(1, "Bogotá", true)

	err := Route{Origin: bog, Destination: bog}.Validate()
	assert.Equal(t, "ROUTE_SAME_CITY", CodeOf(err))

	err = Route{Origin: city(0, "Bogotá", true), Destination: city(0, "bogotá", true)}.Validate()
	assert.Equal(t, "ROUTE_SAME_CITY", CodeOf(err))

	err = Route{Origin: city(3, "Madrid", false), Destination: city(4, "Miami", false)}.Validate()
	assert.Equal(t, "ROUTE_NATIONALITY", CodeOf(err))

	assert.NoError(t, Route{Origin: city(0, "Bogotá", true), Destination: city(0, "Cali", true)}.Validate())
}

func TestFlight_FareCents(t *testing.T) {
	f := Flight{Route: Route{FareFirstCents: 100000, FareSecondCents: 40000}}
	assert.Equal(t, int64(100000), f.FareCents(ClassFirst))
	assert.Equal(t, int64(40000), f.FareCents(ClassSecond))

	f.DiscountPercent = 25
	assert.Equal(t, int64(75000), f.FareCents(ClassFirst))
	assert.Equal(t, int64(30000), f.FareCents(ClassSecond))
}

func TestFlight_DepartureIn(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skip("zone database unavailable")
	}
	f := Flight{DepartureLocal: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)}

	dep := f.DepartureIn(madrid)
	assert.Equal(t, 10, dep.Hour())
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), dep.UTC())
}

func TestTraveler_AgeAt(t *testing.T) {
	tr := Traveler{BirthDate: time.Date(2007, 6, 15, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, 17, tr.AgeAt(time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 18, tr.AgeAt(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, tr.IsAdultAt(time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.True(t, tr.IsAdultAt(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
}

func TestReservation_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := Reservation{Status: ReservationActive, ExpiresAt: now.Add(HoldWindow)}

	assert.False(t, r.Expired(now))
	assert.False(t, r.Expired(now.Add(HoldWindow)))
	assert.True(t, r.Expired(now.Add(HoldWindow+time.Second)))

	r.Status = ReservationPaid
	assert.False(t, r.Expired(now.Add(48*time.Hour)))
}

func TestReservation_Legs(t *testing.T) {
	r := Reservation{FlightID: 1}
	assert.Equal(t, []Leg{LegOutbound}, r.Legs())
	_, ok := r.FlightFor(LegReturn)
	assert.False(t, ok)

	ret := int64(2)
	r.ReturnFlightID = &ret
	assert.Equal(t, []Leg{LegOutbound, LegReturn}, r.Legs())
	id, ok := r.FlightFor(LegReturn)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestErrors_Kinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", SeatUnavailable("seat 1A is OCCUPIED"))

	assert.True(t, errors.Is(err, ErrInventoryConflict))
	assert.True(t, errors.Is(err, ErrSeatUnavailable))
	assert.Equal(t, KindInventory, KindOf(err))
	assert.Equal(t, "SEAT_NOT_AVAILABLE", CodeOf(err))

	assert.Equal(t, KindValidation, KindOf(Validation("X", "x")))
	assert.Equal(t, KindDuplicate, KindOf(DuplicateBooking("dup")))
	assert.Equal(t, KindState, KindOf(StateConflict("RESERVATION_PAID", "paid")))
	assert.Equal(t, KindDataGap, KindOf(DataGap("DURATION_UNKNOWN", "gap")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("flight")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, string(KindInternal), CodeOf(errors.New("boom")))
	assert.Equal(t, "flight not found", NotFound("flight").Error())
}
