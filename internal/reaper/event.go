package reaper

import (
	"github.com/skyfare/airbooking/internal/domain"
	"github.com/skyfare/airbooking/internal/kafka"
)

func expiredEvent(b *domain.Booking) kafka.BookingEvent {
	return kafka.BookingEvent{
		Type:           kafka.EventBookingExpired,
		Reference:      b.Reference,
		SeatID:         b.SeatID,
		State:          string(b.State),
		PassengerEmail: b.PassengerEmail,
		PaymentAmount:  b.PaymentAmount,
		HoldUntil:      b.HoldUntil,
	}
}
