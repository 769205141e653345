package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skyfare/airbooking/internal/domain"
)

// Tx is one atomic unit of work. Every lifecycle step of a booking (claim +
// create, pay + confirm, cancel + release) runs against a single Tx so that
// any error rolls the whole step back.
type Tx interface {
	Seats() SeatLedger
	Bookings() BookingRepository
}

// Store begins transactions and serves the read-side queries that do not
// need row locks.
type Store interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error
	GetBooking(ctx context.Context, reference string) (*domain.Booking, error)
	ListBookingsByOwner(ctx context.Context, ownerID string) ([]domain.Booking, error)
	ExpiredHolds(ctx context.Context, now time.Time) ([]string, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) GetBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	return scanBooking(s.db.QueryRow(ctx, selectBooking+` WHERE reference=$1`, reference))
}

func (s *PGStore) ListBookingsByOwner(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	rows, err := s.db.Query(ctx, selectBooking+` WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

// ExpiredHolds returns references of bookings whose hold deadline has lapsed.
// The caller must re-check state under a lock before expiring; a payment that
// commits between this query and the expiry transaction wins the race.
func (s *PGStore) ExpiredHolds(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT reference FROM bookings WHERE state=$1 AND hold_until < $2 ORDER BY hold_until`,
		domain.StateSeatHeld, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Seats() SeatLedger           { return &PGSeatLedger{tx: t.tx} }
func (t *pgTx) Bookings() BookingRepository { return &PGBookingRepository{q: t.tx} }

var _ Store = (*PGStore)(nil)
var _ Tx = (*pgTx)(nil)
