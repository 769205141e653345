package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/skyfare/airbooking/internal/domain"
	"github.com/skyfare/airbooking/internal/kafka"
	"github.com/skyfare/airbooking/internal/payment"
	"github.com/skyfare/airbooking/internal/repository"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ProcessPayment(ctx context.Context, reference string, actor domain.Actor) (*domain.Booking, error)
	CancelBooking(ctx context.Context, reference string, actor domain.Actor) (*domain.Booking, error)
	RefundBooking(ctx context.Context, reference string, actor domain.Actor) (*domain.Booking, error)
	ReleaseHold(ctx context.Context, reference string, actor domain.Actor) (*domain.Booking, error)
	GetBooking(ctx context.Context, reference string, actor domain.Actor) (*domain.Booking, error)
	ListBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	store              repository.Store
	gateway            payment.Gateway
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	holdTTL            time.Duration
	now                func() time.Time
}

type CreateBookingInput struct {
	SeatID         int64  `json:"seat_id"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
	PassengerPhone string `json:"passenger_phone"`
	Actor          domain.Actor
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithClock replaces the time source, used by tests to simulate deadlines.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	store repository.Store,
	gateway payment.Gateway,
	producer Producer,
	eventsTopic string,
	holdTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:       store,
		gateway:     gateway,
		producer:    producer,
		eventsTopic: eventsTopic,
		holdTTL:     holdTTL,
		now:         time.Now,
	}
	if service.holdTTL <= 0 {
		service.holdTTL = 10 * time.Minute
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking claims the seat and creates the booking in SEAT_HELD inside
// one transaction. The seat lock is held only until the booking row exists;
// the hold deadline, not a lock, protects the payment window.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.SeatID <= 0 {
		return nil, errors.New("seat id must be positive")
	}
	if input.PassengerName == "" {
		return nil, errors.New("passenger name is required")
	}
	if input.PassengerEmail == "" {
		return nil, errors.New("passenger email is required")
	}

	var created *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		seat, err := tx.Seats().Claim(ctx, input.SeatID, s.now())
		if err != nil {
			return err
		}

		b := &domain.Booking{
			Reference:      uuid.NewString(),
			SeatID:         seat.Seat.ID,
			OwnerID:        input.Actor.ID,
			PassengerName:  input.PassengerName,
			PassengerEmail: input.PassengerEmail,
			PassengerPhone: input.PassengerPhone,
			TravelDate:     seat.DepartureTime,
			State:          domain.StateInitiated,
			PaymentAmount:  seat.PriceCents,
		}
		if err := domain.Transition(b, domain.StateSeatHeld); err != nil {
			return err
		}
		b.HoldUntil = s.now().Add(s.holdTTL)

		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingHeld, created)
	return created, nil
}

// ProcessPayment advances a held booking through PAYMENT_PENDING and settles
// it according to the gateway outcome. The charge happens between the two
// transactions so no row lock is held across the external call.
func (s *BookingService) ProcessPayment(ctx context.Context, reference string, actor domain.Actor) (*domain.Booking, error) {
	var b *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.Bookings().GetForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if !current.OwnedBy(actor) {
			return domain.ErrForbidden
		}
		if err := domain.Transition(current, domain.StatePaymentPending); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, current); err != nil {
			return err
		}
		b = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome, chargeErr := s.gateway.Charge(ctx, b.PaymentAmount, b.Reference)
	if chargeErr != nil {
		outcome = payment.OutcomeFailure
	}

	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.Bookings().GetForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if outcome == payment.OutcomeSuccess {
			if err := domain.Transition(current, domain.StateConfirmed); err != nil {
				return err
			}
			if err := tx.Seats().SetBooked(ctx, current.SeatID); err != nil {
				return err
			}
			current.ConfirmedAt = s.now()
		} else {
			if err := domain.Transition(current, domain.StateCancelled); err != nil {
				return err
			}
			current.CancelledAt = s.now()
		}
		if err := tx.Bookings().Update(ctx, current); err != nil {
			return err
		}
		b = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	if chargeErr != nil {
		return b, chargeErr
	}

	if outcome == payment.OutcomeSuccess {
		s.publish(ctx, kafka.EventBookingConfirmed, b)
	} else {
		s.publish(ctx, kafka.EventPaymentFailed, b)
	}
	return b, nil
}

// CancelBooking cancels a confirmed booking and frees its seat.
func (s *BookingService) CancelBooking(ctx context.Context, reference string, actor domain.Actor) (*domain.Booking, error) {
	var b *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.Bookings().GetForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if !current.OwnedBy(actor) {
			return domain.ErrForbidden
		}
		if current.State != domain.StateConfirmed {
			return domain.NewBookingError("only confirmed bookings can be cancelled")
		}
		if err := domain.Transition(current, domain.StateCancelled); err != nil {
			return err
		}
		if err := tx.Seats().ClearBooked(ctx, current.SeatID); err != nil {
			return err
		}
		current.CancelledAt = s.now()
		if err := tx.Bookings().Update(ctx, current); err != nil {
			return err
		}
		b = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCancelled, b)
	return b, nil
}

// RefundBooking refunds a cancelled booking exactly once. Administrative only.
func (s *BookingService) RefundBooking(ctx context.Context, reference string, actor domain.Actor) (*domain.Booking, error) {
	if !actor.Admin {
		return nil, domain.ErrForbidden
	}

	var b *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.Bookings().GetForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if current.RefundProcessed {
			return domain.NewBookingError("refund already processed")
		}
		if current.State != domain.StateCancelled {
			return domain.NewBookingError("only cancelled bookings can be refunded")
		}
		if err := domain.Transition(current, domain.StateRefunded); err != nil {
			return err
		}
		current.RefundAmount = current.PaymentAmount
		current.RefundProcessed = true
		current.RefundDate = s.now()
		if err := tx.Bookings().Update(ctx, current); err != nil {
			return err
		}
		b = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingRefunded, b)
	return b, nil
}

// ReleaseHold lets the owner give a held seat back before the hold expires.
// The seat's permanent flag was never set, so the ledger is not involved.
func (s *BookingService) ReleaseHold(ctx context.Context, reference string, actor domain.Actor) (*domain.Booking, error) {
	var b *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.Bookings().GetForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if !current.OwnedBy(actor) {
			return domain.ErrForbidden
		}
		if current.State != domain.StateSeatHeld {
			return domain.NewBookingError("only held bookings can be released")
		}
		if err := domain.Transition(current, domain.StateCancelled); err != nil {
			return err
		}
		current.CancelledAt = s.now()
		if err := tx.Bookings().Update(ctx, current); err != nil {
			return err
		}
		b = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCancelled, b)
	return b, nil
}

func (s *BookingService) GetBooking(ctx context.Context, reference string, actor domain.Actor) (*domain.Booking, error) {
	b, err := s.store.GetBooking(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !b.OwnedBy(actor) {
		return nil, domain.ErrForbidden
	}
	return b, nil
}

func (s *BookingService) ListBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	return s.store.ListBookingsByOwner(ctx, actor.ID)
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:           eventType,
		Reference:      b.Reference,
		SeatID:         b.SeatID,
		State:          string(b.State),
		PassengerEmail: b.PassengerEmail,
		PaymentAmount:  b.PaymentAmount,
		HoldUntil:      b.HoldUntil,
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, b.Reference, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %s: %v", eventType, b.Reference, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.Reference, event); err != nil {
			log.Printf("WARNING: failed to publish %s notification for booking %s: %v", eventType, b.Reference, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
