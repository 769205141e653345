package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/skyfare/airbooking/internal/domain"
)

// BookingRepository is the transaction-scoped write side of bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	// GetForUpdate locks the booking row so the state read and the
	// subsequent write happen under the same lock.
	GetForUpdate(ctx context.Context, reference string) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const selectBooking = `SELECT id, reference, seat_id, owner_id, passenger_name, passenger_email,
	passenger_phone, travel_date, state, hold_until, payment_amount, refund_amount,
	refund_processed, refund_date, confirmed_at, cancelled_at, created_at, updated_at
	FROM bookings`

type PGBookingRepository struct {
	q queryer
}

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return r.q.QueryRow(ctx, `INSERT INTO bookings
		(reference, seat_id, owner_id, passenger_name, passenger_email, passenger_phone,
		 travel_date, state, hold_until, payment_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		b.Reference, b.SeatID, b.OwnerID, b.PassengerName, b.PassengerEmail, b.PassengerPhone,
		b.TravelDate, b.State, b.HoldUntil, b.PaymentAmount).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *PGBookingRepository) GetForUpdate(ctx context.Context, reference string) (*domain.Booking, error) {
	return scanBooking(r.q.QueryRow(ctx, selectBooking+` WHERE reference=$1 FOR UPDATE`, reference))
}

func (r *PGBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	cmd, err := r.q.Exec(ctx, `UPDATE bookings SET state=$1, hold_until=$2, payment_amount=$3,
		refund_amount=$4, refund_processed=$5, refund_date=$6, confirmed_at=$7, cancelled_at=$8,
		updated_at=now() WHERE reference=$9`,
		b.State, b.HoldUntil, b.PaymentAmount, b.RefundAmount, b.RefundProcessed,
		b.RefundDate, b.ConfirmedAt, b.CancelledAt, b.Reference)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.Reference, &b.SeatID, &b.OwnerID, &b.PassengerName,
		&b.PassengerEmail, &b.PassengerPhone, &b.TravelDate, &b.State, &b.HoldUntil,
		&b.PaymentAmount, &b.RefundAmount, &b.RefundProcessed, &b.RefundDate,
		&b.ConfirmedAt, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
