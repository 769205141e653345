package domain

type BookingState string

const (
	StateInitiated      BookingState = "INITIATED"
	StateSeatHeld       BookingState = "SEAT_HELD"
	StatePaymentPending BookingState = "PAYMENT_PENDING"
	StateConfirmed      BookingState = "CONFIRMED"
	StateCancelled      BookingState = "CANCELLED"
	StateExpired        BookingState = "EXPIRED"
	StateRefunded       BookingState = "REFUNDED"
)

// allowedTransitions is the full edge set of the booking lifecycle.
// EXPIRED and REFUNDED are terminal.
var allowedTransitions = map[BookingState][]BookingState{
	StateInitiated:      {StateSeatHeld},
	StateSeatHeld:       {StatePaymentPending, StateExpired, StateCancelled},
	StatePaymentPending: {StateConfirmed, StateCancelled},
	StateConfirmed:      {StateCancelled},
	StateCancelled:      {StateRefunded},
}

// ActiveStates are the states in which a booking still occupies its seat.
// At most one booking per seat may be in any of them.
var ActiveStates = []BookingState{StateSeatHeld, StatePaymentPending, StateConfirmed}

func (s BookingState) Active() bool {
	for _, a := range ActiveStates {
		if s == a {
			return true
		}
	}
	return false
}

// CanTransition reports whether target is a legal successor of s.
func (s BookingState) CanTransition(target BookingState) bool {
	for _, next := range allowedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition moves the booking to target or fails with
// *InvalidTransitionError. It mutates only the state field; persisting the
// change inside the caller's transaction is the caller's responsibility.
func Transition(b *Booking, target BookingState) error {
	if !b.State.CanTransition(target) {
		return &InvalidTransitionError{From: b.State, To: target}
	}
	b.State = target
	return nil
}
