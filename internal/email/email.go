package email

import (
	"context"
	"fmt"

	"github.com/skyfare/airbooking/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("send email to %s about %s for booking %s (seat %d)\n",
		event.PassengerEmail, event.Type, event.Reference, event.SeatID)
	return nil
}
