package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/0001_init.sql
var initSchema string

const pgUniqueViolationCode = "23505"

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Migrate applies the schema; every statement is idempotent.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, initSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PGStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", mapPGError(err))
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

// mapPGError turns constraint violations of the segment indexes into domain conflicts.
func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
		switch pgErr.ConstraintName {
		case "segments_active_seat_uq":
			return domain.SeatUnavailable("seat is already bound to another segment")
		case "segments_active_document_uq":
			return domain.DuplicateBooking("traveler already holds a seat on this flight")
		}
	}
	return err
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(what)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

var _ Store = (*PGStore)(nil)
var _ Tx = (*pgTx)(nil)
