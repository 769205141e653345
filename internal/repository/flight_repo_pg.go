package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skyfare/airbooking/internal/domain"
)

type FlightRepository interface {
	List(ctx context.Context, now time.Time) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	Seats(ctx context.Context, flightID int64) ([]domain.Seat, error)
	CreateSeat(ctx context.Context, seat *domain.Seat) error
	// Cities returns distinct origin or destination names of active flights,
	// optionally filtered by a case-insensitive substring.
	Cities(ctx context.Context, field CityField, query string, limit int) ([]string, error)
}

type CityField string

const (
	CityOrigin      CityField = "origin"
	CityDestination CityField = "destination"
)

const selectFlight = `SELECT id, code, airline_code, origin, destination, departure_time,
	arrival_time, price_cents, aircraft_type, total_seats, is_active, created_at, updated_at
	FROM flights`

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) List(ctx context.Context, now time.Time) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx,
		selectFlight+` WHERE is_active AND departure_time > $1 ORDER BY departure_time`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return scanFlight(r.db.QueryRow(ctx, selectFlight+` WHERE id=$1`, id))
}

func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `INSERT INTO flights
		(code, airline_code, origin, destination, departure_time, arrival_time,
		 price_cents, aircraft_type, total_seats, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		f.Code, f.AirlineCode, f.Origin, f.Destination, f.DepartureTime, f.ArrivalTime,
		f.PriceCents, f.AircraftType, f.TotalSeats, f.IsActive).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

func (r *PGFlightRepository) Seats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT id, flight_id, seat_number, seat_class, row_number,
		seat_letter, is_window, is_aisle, is_booked, created_at, updated_at
		FROM seats WHERE flight_id=$1 ORDER BY row_number, seat_letter`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.SeatClass, &s.RowNumber,
			&s.SeatLetter, &s.IsWindow, &s.IsAisle, &s.IsBooked, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func (r *PGFlightRepository) CreateSeat(ctx context.Context, s *domain.Seat) error {
	return r.db.QueryRow(ctx, `INSERT INTO seats
		(flight_id, seat_number, seat_class, row_number, seat_letter, is_window, is_aisle)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		s.FlightID, s.SeatNumber, s.SeatClass, s.RowNumber, s.SeatLetter, s.IsWindow, s.IsAisle).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *PGFlightRepository) Cities(ctx context.Context, field CityField, query string, limit int) ([]string, error) {
	if field != CityOrigin && field != CityDestination {
		return nil, errors.New("unknown city field")
	}
	// field is validated against the two known column names above.
	sql := `SELECT DISTINCT ` + string(field) + ` FROM flights WHERE is_active`
	args := []any{}
	if query != "" {
		sql += ` AND ` + string(field) + ` ILIKE '%' || $1 || '%'`
		args = append(args, query)
	}
	sql += ` ORDER BY ` + string(field)
	if limit > 0 {
		sql += ` LIMIT ` + strconv.Itoa(limit)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cities := make([]string, 0)
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, err
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	err := row.Scan(&f.ID, &f.Code, &f.AirlineCode, &f.Origin, &f.Destination, &f.DepartureTime,
		&f.ArrivalTime, &f.PriceCents, &f.AircraftType, &f.TotalSeats, &f.IsActive,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
