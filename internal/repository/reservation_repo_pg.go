package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
)

const reservationColumns = `id, code, user_id, flight_id, return_flight_id, class, passenger_count, total_price_cents,
	status, cancel_reason, expires_at, paid_at, created_at, updated_at`

func (t *pgTx) InsertReservation(ctx context.Context, r *domain.Reservation) error {
	return t.tx.QueryRow(ctx, `INSERT INTO reservations
		(code, user_id, flight_id, return_flight_id, class, passenger_count, total_price_cents, status, cancel_reason, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id, updated_at`,
		r.Code, r.UserID, r.FlightID, r.ReturnFlightID, r.Class, r.PassengerCount, r.TotalPriceCents,
		r.Status, r.CancelReason, r.ExpiresAt, r.CreatedAt).Scan(&r.ID, &r.UpdatedAt)
}

func (t *pgTx) LockReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	r, err := scanReservation(t.tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "reservation")
	}
	return r, nil
}

func (t *pgTx) GetReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	r, err := scanReservation(t.tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "reservation")
	}
	return r, nil
}

func (t *pgTx) UpdateReservation(ctx context.Context, r *domain.Reservation) error {
	err := t.tx.QueryRow(ctx, `UPDATE reservations
		SET status = $1, cancel_reason = $2, paid_at = $3, total_price_cents = $4, updated_at = now()
		WHERE id = $5 RETURNING updated_at`,
		r.Status, r.CancelReason, r.PaidAt, r.TotalPriceCents, r.ID).Scan(&r.UpdatedAt)
	if err != nil {
		return notFound(err, "reservation")
	}
	return nil
}

func (t *pgTx) ListExpiredReservationIDs(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := t.tx.Query(ctx, `SELECT id FROM reservations
		WHERE status = $1 AND expires_at < $2 ORDER BY id LIMIT $3`, domain.ReservationActive, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var r domain.Reservation
	if err := row.Scan(&r.ID, &r.Code, &r.UserID, &r.FlightID, &r.ReturnFlightID, &r.Class, &r.PassengerCount,
		&r.TotalPriceCents, &r.Status, &r.CancelReason, &r.ExpiresAt, &r.PaidAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

const travelerColumns = `id, reservation_id, user_id, document, first_name, last_name, birth_date, gender, email, phone, created_at`

func (t *pgTx) InsertTraveler(ctx context.Context, tr *domain.Traveler) error {
	return t.tx.QueryRow(ctx, `INSERT INTO travelers
		(reservation_id, user_id, document, first_name, last_name, birth_date, gender, email, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`,
		tr.ReservationID, tr.UserID, tr.Document, tr.FirstName, tr.LastName, tr.BirthDate, tr.Gender, tr.Email, tr.Phone).
		Scan(&tr.ID, &tr.CreatedAt)
}

func (t *pgTx) FindTraveler(ctx context.Context, reservationID int64, document string) (*domain.Traveler, error) {
	tr, err := scanTraveler(t.tx.QueryRow(ctx, `SELECT `+travelerColumns+` FROM travelers
		WHERE reservation_id = $1 AND document = $2`, reservationID, document))
	if err != nil {
		return nil, notFound(err, "traveler")
	}
	return tr, nil
}

func (t *pgTx) ListTravelers(ctx context.Context, reservationID int64) ([]domain.Traveler, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+travelerColumns+` FROM travelers WHERE reservation_id = $1 ORDER BY id`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("list travelers: %w", err)
	}
	defer rows.Close()

	travelers := make([]domain.Traveler, 0)
	for rows.Next() {
		tr, err := scanTraveler(rows)
		if err != nil {
			return nil, fmt.Errorf("scan traveler: %w", err)
		}
		travelers = append(travelers, *tr)
	}
	return travelers, rows.Err()
}

func scanTraveler(row pgx.Row) (*domain.Traveler, error) {
	var tr domain.Traveler
	if err := row.Scan(&tr.ID, &tr.ReservationID, &tr.UserID, &tr.Document, &tr.FirstName, &tr.LastName,
		&tr.BirthDate, &tr.Gender, &tr.Email, &tr.Phone, &tr.CreatedAt); err != nil {
		return nil, err
	}
	return &tr, nil
}

const segmentColumns = `id, reservation_id, traveler_id, leg, flight_id, seat_id, active, created_at`

// InsertSegment copies the traveler document onto the row so the active-document index can see it.
func (t *pgTx) InsertSegment(ctx context.Context, s *domain.Segment) error {
	err := t.tx.QueryRow(ctx, `INSERT INTO segments (reservation_id, traveler_id, leg, flight_id, seat_id, document, active)
		SELECT $1, tr.id, $3, $4, $5, tr.document, $6 FROM travelers tr WHERE tr.id = $2
		RETURNING id, created_at`,
		s.ReservationID, s.TravelerID, s.Leg, s.FlightID, s.SeatID, s.Active).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if mapped := mapPGError(err); mapped != err {
			return mapped
		}
		return notFound(err, "traveler")
	}
	return nil
}

func (t *pgTx) GetSegment(ctx context.Context, id int64) (*domain.Segment, error) {
	s, err := scanSegment(t.tx.QueryRow(ctx, `SELECT `+segmentColumns+` FROM segments WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "segment")
	}
	return s, nil
}

func (t *pgTx) ListSegments(ctx context.Context, reservationID int64) ([]domain.Segment, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+segmentColumns+` FROM segments WHERE reservation_id = $1 ORDER BY id`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	segments := make([]domain.Segment, 0)
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segments = append(segments, *s)
	}
	return segments, rows.Err()
}

func (t *pgTx) UpdateSegment(ctx context.Context, s *domain.Segment) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE segments SET seat_id = $1, active = $2 WHERE id = $3`, s.SeatID, s.Active, s.ID)
	if err != nil {
		return fmt.Errorf("update segment %d: %w", s.ID, mapPGError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("segment")
	}
	return nil
}

func (t *pgTx) HasActiveSegment(ctx context.Context, document string, flightID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM segments WHERE document = $1 AND flight_id = $2 AND active)`,
		document, flightID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active segment: %w", err)
	}
	return exists, nil
}

func scanSegment(row pgx.Row) (*domain.Segment, error) {
	var s domain.Segment
	if err := row.Scan(&s.ID, &s.ReservationID, &s.TravelerID, &s.Leg, &s.FlightID, &s.SeatID, &s.Active, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
