package domain

import "time"

type SeatClass string

const (
	SeatClassEconomy  SeatClass = "ECONOMY"
	SeatClassBusiness SeatClass = "BUSINESS"
	SeatClassFirst    SeatClass = "FIRST"
)

// Seat belongs to exactly one flight. IsBooked is the permanent flag toggled
// by the seat ledger when a booking is confirmed or a confirmed booking is
// cancelled; it is never set for holds.
type Seat struct {
	ID         int64
	FlightID   int64
	SeatNumber string
	SeatClass  SeatClass
	RowNumber  int
	SeatLetter string
	IsWindow   bool
	IsAisle    bool
	IsBooked   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
