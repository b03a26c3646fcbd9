package repository

import (
	"errors"
	"testing"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewPGStore(t *testing.T) {
	pool := &pgxpool.Pool{}
	store := NewPGStore(pool)
	assert.NotNil(t, store)
}

func TestMapPGError(t *testing.T) {
	seat := &pgconn.PgError{Code: "23505", ConstraintName: "segments_active_seat_uq"}
	doc := &pgconn.PgError{Code: "23505", ConstraintName: "segments_active_document_uq"}
	other := &pgconn.PgError{Code: "23503", ConstraintName: "segments_flight_fk"}

	assert.ErrorIs(t, mapPGError(seat), domain.ErrSeatUnavailable)
	assert.Equal(t, domain.KindDuplicate, domain.KindOf(mapPGError(doc)))
	assert.Equal(t, other, mapPGError(other))
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(pgx.ErrNoRows, "flight"), domain.ErrNotFound)

	err := notFound(errors.New("timeout"), "flight")
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.EqualError(t, err, "get flight: timeout")
}
