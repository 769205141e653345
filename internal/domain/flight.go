package domain

import (
	"errors"
	"time"
)

type Flight struct {
	ID            int64
	Code          string
	AirlineCode   string
	Origin        string
	Destination   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	PriceCents    int64
	AircraftType  string
	TotalSeats    int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the schedule window and price before a flight is persisted.
func (f *Flight) Validate() error {
	if f.Code == "" {
		return errors.New("flight code is required")
	}
	if !f.ArrivalTime.After(f.DepartureTime) {
		return errors.New("arrival time must be after departure time")
	}
	if f.PriceCents <= 0 {
		return errors.New("price must be positive")
	}
	return nil
}

// Departed reports whether the flight has already left as of now.
func (f *Flight) Departed(now time.Time) bool {
	return !f.DepartureTime.After(now)
}
