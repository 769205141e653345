package domain

import "time"

// Actor is the opaque identity supplied by the caller. An empty ID means the
// booking was created anonymously.
type Actor struct {
	ID    string
	Admin bool
}

func (a Actor) Anonymous() bool { return a.ID == "" }

type Booking struct {
	ID              int64
	Reference       string
	SeatID          int64
	OwnerID         string
	PassengerName   string
	PassengerEmail  string
	PassengerPhone  string
	TravelDate      time.Time
	State           BookingState
	HoldUntil       time.Time
	PaymentAmount   int64
	RefundAmount    int64
	RefundProcessed bool
	RefundDate      time.Time
	ConfirmedAt     time.Time
	CancelledAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OwnedBy reports whether the actor may mutate this booking: the owner,
// an administrator, or anyone if the booking is anonymous.
func (b *Booking) OwnedBy(actor Actor) bool {
	if actor.Admin || b.OwnerID == "" {
		return true
	}
	return actor.ID == b.OwnerID
}
