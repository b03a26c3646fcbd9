package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
)

// LockFlight takes a transaction-scoped advisory lock keyed by the flight id.
func (t *pgTx) LockFlight(ctx context.Context, flightID int64) error {
	var exists bool
	if err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id = $1)`, flightID).Scan(&exists); err != nil {
		return fmt.Errorf("lock flight: %w", err)
	}
	if !exists {
		return domain.NotFound("flight")
	}
	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, flightID); err != nil {
		return fmt.Errorf("lock flight %d: %w", flightID, err)
	}
	return nil
}

func (t *pgTx) InsertSeats(ctx context.Context, seats []domain.Seat) error {
	batch := &pgx.Batch{}
	for i := range seats {
		batch.Queue(`INSERT INTO seats (flight_id, seat_row, seat_column, class, status)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			seats[i].FlightID, seats[i].Row, seats[i].Column, seats[i].Class, seats[i].Status)
	}
	br := t.tx.SendBatch(ctx, batch)
	defer br.Close()
	for i := range seats {
		if err := br.QueryRow().Scan(&seats[i].ID); err != nil {
			return fmt.Errorf("insert seat %s: %w", seats[i].Label(), err)
		}
	}
	return nil
}

func (t *pgTx) ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, flight_id, seat_row, seat_column, class, status
		FROM seats WHERE flight_id = $1 ORDER BY seat_row, seat_column`, flightID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.Row, &s.Column, &s.Class, &s.Status); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func (t *pgTx) GetSeat(ctx context.Context, id int64) (*domain.Seat, error) {
	var s domain.Seat
	err := t.tx.QueryRow(ctx, `SELECT id, flight_id, seat_row, seat_column, class, status FROM seats WHERE id = $1`, id).
		Scan(&s.ID, &s.FlightID, &s.Row, &s.Column, &s.Class, &s.Status)
	if err != nil {
		return nil, notFound(err, "seat")
	}
	return &s, nil
}

func (t *pgTx) SetSeatStatus(ctx context.Context, id int64, status domain.SeatStatus) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE seats SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update seat %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("seat")
	}
	return nil
}
