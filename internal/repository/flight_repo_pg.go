package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
)

const flightColumns = `f.id, f.departure_local, f.status, f.discount_percent, f.created_at, f.updated_at,
	r.id, r.fare_first_cents, r.fare_second_cents,
	o.id, o.name, o.country, o.is_domestic, o.timezone,
	d.id, d.name, d.country, d.is_domestic, d.timezone`

const flightFrom = `FROM flights f
	JOIN routes r ON r.id = f.route_id
	JOIN cities o ON o.id = r.origin_city_id
	JOIN cities d ON d.id = r.destination_city_id`

func (t *pgTx) InsertCity(ctx context.Context, city *domain.City) error {
	return t.tx.QueryRow(ctx, `INSERT INTO cities (name, country, is_domestic, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET country = EXCLUDED.country, is_domestic = EXCLUDED.is_domestic, timezone = EXCLUDED.timezone
		RETURNING id`, city.Name, city.Country, city.IsDomestic, city.Timezone).Scan(&city.ID)
}

func (t *pgTx) InsertRoute(ctx context.Context, route *domain.Route) error {
	return t.tx.QueryRow(ctx, `INSERT INTO routes (origin_city_id, destination_city_id, fare_first_cents, fare_second_cents)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		route.Origin.ID, route.Destination.ID, route.FareFirstCents, route.FareSecondCents).Scan(&route.ID)
}

func (t *pgTx) InsertFlight(ctx context.Context, flight *domain.Flight) error {
	if flight.Status == "" {
		flight.Status = domain.FlightStatusActive
	}
	return t.tx.QueryRow(ctx, `INSERT INTO flights (route_id, departure_local, status, discount_percent)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		flight.Route.ID, flight.DepartureLocal, flight.Status, flight.DiscountPercent).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
}

func (t *pgTx) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+flightColumns+` `+flightFrom+` WHERE f.id = $1`, id)
	f, err := scanFlight(row)
	if err != nil {
		return nil, notFound(err, "flight")
	}
	return f, nil
}

func (t *pgTx) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+flightColumns+` `+flightFrom+` ORDER BY f.departure_local, f.id`)
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	r := &f.Route
	if err := row.Scan(&f.ID, &f.DepartureLocal, &f.Status, &f.DiscountPercent, &f.CreatedAt, &f.UpdatedAt,
		&r.ID, &r.FareFirstCents, &r.FareSecondCents,
		&r.Origin.ID, &r.Origin.Name, &r.Origin.Country, &r.Origin.IsDomestic, &r.Origin.Timezone,
		&r.Destination.ID, &r.Destination.Name, &r.Destination.Country, &r.Destination.IsDomestic, &r.Destination.Timezone,
	); err != nil {
		return nil, err
	}
	return &f, nil
}
