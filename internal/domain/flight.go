package domain

import (
	"fmt"
	"strings"
	"time"
)

type CabinClass string

const (
	ClassFirst  CabinClass = "FIRST"
	ClassSecond CabinClass = "SECOND"
)

func (c CabinClass) Valid() bool {
	return c == ClassFirst || c == ClassSecond
}

type City struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Country    string `json:"country"`
	IsDomestic bool   `json:"is_domestic"`
	Timezone   string `json:"timezone"`
}

type Nationality string

const (
	NationalityDomestic      Nationality = "DOMESTIC"
	NationalityInternational Nationality = "INTERNATIONAL"
	// NationalityInbound is a foreign origin flying into a domestic destination.
	NationalityInbound Nationality = "INBOUND"
	NationalityInvalid Nationality = "INVALID"
)

type Route struct {
	ID              int64 `json:"id"`
	Origin          City  `json:"origin"`
	Destination     City  `json:"destination"`
	FareFirstCents  int64 `json:"fare_first_cents"`
	FareSecondCents int64 `json:"fare_second_cents"`
}

// Nationality is derived from the endpoints' is_domestic flags only.
func (r Route) Nationality() Nationality {
	switch {
	case r.Origin.IsDomestic && r.Destination.IsDomestic:
		return NationalityDomestic
	case r.Origin.IsDomestic && !r.Destination.IsDomestic:
		return NationalityInternational
	case !r.Origin.IsDomestic && r.Destination.IsDomestic:
		return NationalityInbound
	default:
		return NationalityInvalid
	}
}

func (r Route) Validate() error {
	sameID := r.Origin.ID != 0 && r.Origin.ID == r.Destination.ID
	if sameID || strings.EqualFold(r.Origin.Name, r.Destination.Name) {
		return Validation("ROUTE_SAME_CITY", "route origin and destination must differ")
	}
	if r.Nationality() == NationalityInvalid {
		return Validation("ROUTE_NATIONALITY", fmt.Sprintf("route %s -> %s has no domestic endpoint", r.Origin.Name, r.Destination.Name))
	}
	return nil
}

func (r Route) BaseFare(class CabinClass) int64 {
	if class == ClassFirst {
		return r.FareFirstCents
	}
	return r.FareSecondCents
}

type FlightStatus string

const (
	FlightStatusActive   FlightStatus = "ACTIVE"
	FlightStatusInactive FlightStatus = "INACTIVE"
)

type Flight struct {
	ID     int64        `json:"id"`
	Route  Route        `json:"route"`
	Status FlightStatus `json:"status"`
	// DepartureLocal is a wall-clock time in the origin city's timezone; its Location is ignored.
	DepartureLocal  time.Time `json:"departure_local"`
	DiscountPercent int       `json:"discount_percent"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DepartureIn anchors the naive departure wall clock to loc.
func (f Flight) DepartureIn(loc *time.Location) time.Time {
	d := f.DepartureLocal
	return time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, loc)
}

func (f Flight) FareCents(class CabinClass) int64 {
	base := f.Route.BaseFare(class)
	if f.DiscountPercent <= 0 || f.DiscountPercent >= 100 {
		return base
	}
	return base * int64(100-f.DiscountPercent) / 100
}
