package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSeatNotFound means the referenced seat id does not exist.
	ErrSeatNotFound = errors.New("seat not found")
	// ErrSeatUnavailable means the seat is permanently booked, already held
	// by an active booking, or its flight has departed.
	ErrSeatUnavailable = errors.New("seat not available")
	// ErrBookingNotFound means no booking exists for the given reference.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrForbidden means the actor is neither the owner nor an administrator.
	ErrForbidden = errors.New("actor is not allowed to modify this booking")
)

// InvalidTransitionError is returned when a requested state change is not a
// legal edge from the booking's current state.
type InvalidTransitionError struct {
	From BookingState
	To   BookingState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// BookingError is a general precondition failure on a booking operation,
// e.g. refunding an already refunded booking.
type BookingError struct {
	Reason string
}

func (e *BookingError) Error() string { return e.Reason }

func NewBookingError(format string, args ...interface{}) *BookingError {
	return &BookingError{Reason: fmt.Sprintf(format, args...)}
}
