package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/skyfare/airbooking/internal/domain"
)

// ClaimedSeat is the snapshot taken under the row lock. PriceCents is the
// amount copied onto the booking; the flight price is never re-read later.
type ClaimedSeat struct {
	Seat          domain.Seat
	FlightCode    string
	DepartureTime time.Time
	PriceCents    int64
}

// SeatLedger serializes concurrent claims on a seat. All methods are scoped
// to the enclosing transaction; the claim lock is released when it commits
// or rolls back.
type SeatLedger interface {
	// Claim acquires an exclusive row lock on the seat and verifies it can
	// be held: it must exist, its permanent flag must be clear, its flight
	// must not have departed, and no active booking may occupy it.
	Claim(ctx context.Context, seatID int64, now time.Time) (*ClaimedSeat, error)
	// SetBooked flips the permanent flag when a booking reaches CONFIRMED.
	SetBooked(ctx context.Context, seatID int64) error
	// ClearBooked clears the flag when a confirmed booking is cancelled.
	ClearBooked(ctx context.Context, seatID int64) error
}

type PGSeatLedger struct {
	tx pgx.Tx
}

func (l *PGSeatLedger) Claim(ctx context.Context, seatID int64, now time.Time) (*ClaimedSeat, error) {
	// Lock the seat row before reading availability. Two concurrent
	// claimants serialize here; the loser re-reads state the winner wrote.
	row := l.tx.QueryRow(ctx, `
		SELECT s.id, s.flight_id, s.seat_number, s.seat_class, s.row_number, s.seat_letter,
		       s.is_window, s.is_aisle, s.is_booked, f.code, f.departure_time, f.price_cents
		FROM seats s
		JOIN flights f ON f.id = s.flight_id
		WHERE s.id = $1
		FOR UPDATE OF s`, seatID)

	var cs ClaimedSeat
	err := row.Scan(&cs.Seat.ID, &cs.Seat.FlightID, &cs.Seat.SeatNumber, &cs.Seat.SeatClass,
		&cs.Seat.RowNumber, &cs.Seat.SeatLetter, &cs.Seat.IsWindow, &cs.Seat.IsAisle,
		&cs.Seat.IsBooked, &cs.FlightCode, &cs.DepartureTime, &cs.PriceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSeatNotFound
		}
		return nil, err
	}

	if cs.Seat.IsBooked {
		return nil, domain.ErrSeatUnavailable
	}
	if !cs.DepartureTime.After(now) {
		return nil, domain.ErrSeatUnavailable
	}

	var held bool
	if err := l.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE seat_id=$1 AND state = ANY($2))`,
		seatID, activeStates()).Scan(&held); err != nil {
		return nil, err
	}
	if held {
		return nil, domain.ErrSeatUnavailable
	}

	return &cs, nil
}

func (l *PGSeatLedger) SetBooked(ctx context.Context, seatID int64) error {
	return l.setBooked(ctx, seatID, true)
}

func (l *PGSeatLedger) ClearBooked(ctx context.Context, seatID int64) error {
	return l.setBooked(ctx, seatID, false)
}

func (l *PGSeatLedger) setBooked(ctx context.Context, seatID int64, booked bool) error {
	cmd, err := l.tx.Exec(ctx,
		`UPDATE seats SET is_booked=$1, updated_at=now() WHERE id=$2`, booked, seatID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrSeatNotFound
	}
	return nil
}

func activeStates() []string {
	states := make([]string, 0, len(domain.ActiveStates))
	for _, s := range domain.ActiveStates {
		states = append(states, string(s))
	}
	return states
}

var _ SeatLedger = (*PGSeatLedger)(nil)
