package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/skyfare/airbooking/internal/domain"
	"github.com/skyfare/airbooking/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type errGateway struct{}

func (errGateway) Charge(ctx context.Context, amountCents int64, bookingRef string) (payment.Outcome, error) {
	return "", errors.New("gateway timeout")
}

func newTestService(store *memStore, gateway payment.Gateway, opts ...BookingServiceOption) *BookingService {
	opts = append(opts, WithClock(fixedClock))
	return NewBookingService(store, gateway, nil, "", 10*time.Minute, opts...)
}

func passengerInput(seatID int64, actor domain.Actor) CreateBookingInput {
	return CreateBookingInput{
		SeatID:         seatID,
		PassengerName:  "Asha Verma",
		PassengerEmail: "asha@example.com",
		PassengerPhone: "+91-9876543210",
		Actor:          actor,
	}
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	b, err := service.CreateBooking(context.Background(), passengerInput(101, domain.Actor{ID: "user1"}))

	assert.NoError(t, err)
	assert.NotNil(t, b)
	assert.NotEmpty(t, b.Reference)
	assert.Equal(t, domain.StateSeatHeld, b.State)
	assert.Equal(t, testNow.Add(10*time.Minute), b.HoldUntil)
	assert.Equal(t, int64(500000), b.PaymentAmount)
	assert.Equal(t, "user1", b.OwnerID)
	assert.Equal(t, int64(101), b.SeatID)

	stored, err := store.GetBooking(context.Background(), b.Reference)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateSeatHeld, stored.State)
}

func TestBookingService_CreateBooking_PublishesEvents(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	mockProducer := &MockProducer{}
	service := NewBookingService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess},
		mockProducer, "booking-events", 10*time.Minute,
		WithClock(fixedClock), WithNotificationsTopic("booking-notifications"))

	mockProducer.On("Publish", mock.Anything, "booking-events", mock.Anything, mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "booking-notifications", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := service.CreateBooking(context.Background(), passengerInput(101, domain.Actor{ID: "user1"}))

	assert.NoError(t, err)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_PublishFailureDoesNotFail(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	mockProducer := &MockProducer{}
	service := NewBookingService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess},
		mockProducer, "booking-events", 10*time.Minute, WithClock(fixedClock))

	mockProducer.On("Publish", mock.Anything, "booking-events", mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()

	b, err := service.CreateBooking(context.Background(), passengerInput(101, domain.Actor{ID: "user1"}))

	assert.NoError(t, err)
	assert.Equal(t, domain.StateSeatHeld, b.State)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_ValidationErrors(t *testing.T) {
	service := newTestService(newMemStore(), &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	testCases := []struct {
		name        string
		input       CreateBookingInput
		expectedErr string
	}{
		{
			name:        "seat id zero",
			input:       CreateBookingInput{PassengerName: "A", PassengerEmail: "a@b.c"},
			expectedErr: "seat id must be positive",
		},
		{
			name:        "missing name",
			input:       CreateBookingInput{SeatID: 1, PassengerEmail: "a@b.c"},
			expectedErr: "passenger name is required",
		},
		{
			name:        "missing email",
			input:       CreateBookingInput{SeatID: 1, PassengerName: "A"},
			expectedErr: "passenger email is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := service.CreateBooking(context.Background(), tc.input)
			assert.Nil(t, b)
			assert.EqualError(t, err, tc.expectedErr)
		})
	}
}

func TestBookingService_CreateBooking_SeatNotFound(t *testing.T) {
	service := newTestService(newMemStore(), &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	b, err := service.CreateBooking(context.Background(), passengerInput(999, domain.Actor{}))

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrSeatNotFound)
}

func TestBookingService_CreateBooking_DepartedFlight(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(-time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	b, err := service.CreateBooking(context.Background(), passengerInput(101, domain.Actor{}))

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrSeatUnavailable)
}

func TestBookingService_CreateBooking_SecondClaimLoses(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	first, err := service.CreateBooking(context.Background(), passengerInput(101, domain.Actor{ID: "user1"}))
	assert.NoError(t, err)
	assert.Equal(t, domain.StateSeatHeld, first.State)

	second, err := service.CreateBooking(context.Background(), passengerInput(101, domain.Actor{ID: "user2"}))
	assert.Nil(t, second)
	assert.ErrorIs(t, err, domain.ErrSeatUnavailable)
}

func TestBookingService_CreateBooking_MutualExclusion(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.CreateBooking(context.Background(), passengerInput(101, domain.Actor{ID: "racer"}))
		}(i)
	}
	wg.Wait()

	succeeded, lost := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrSeatUnavailable):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, lost)
}

func TestBookingService_ProcessPayment_Success(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	actor := domain.Actor{ID: "user1"}
	held, err := service.CreateBooking(context.Background(), passengerInput(101, actor))
	assert.NoError(t, err)

	b, err := service.ProcessPayment(context.Background(), held.Reference, actor)

	assert.NoError(t, err)
	assert.Equal(t, domain.StateConfirmed, b.State)
	assert.Equal(t, testNow, b.ConfirmedAt)
	assert.True(t, store.seats[101].seat.IsBooked)
}

func TestBookingService_ProcessPayment_Failure(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeFailure})

	actor := domain.Actor{ID: "user1"}
	held, err := service.CreateBooking(context.Background(), passengerInput(101, actor))
	assert.NoError(t, err)

	b, err := service.ProcessPayment(context.Background(), held.Reference, actor)

	assert.NoError(t, err)
	assert.Equal(t, domain.StateCancelled, b.State)
	assert.False(t, store.seats[101].seat.IsBooked, "seat must never be marked booked on payment failure")
}

func TestBookingService_ProcessPayment_GatewayError(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, errGateway{})

	actor := domain.Actor{ID: "user1"}
	held, err := service.CreateBooking(context.Background(), passengerInput(101, actor))
	assert.NoError(t, err)

	b, err := service.ProcessPayment(context.Background(), held.Reference, actor)

	assert.EqualError(t, err, "gateway timeout")
	assert.Equal(t, domain.StateCancelled, b.State)
	assert.False(t, store.seats[101].seat.IsBooked)
}

func TestBookingService_ProcessPayment_RequiresHeldState(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	actor := domain.Actor{ID: "user1"}
	held, err := service.CreateBooking(context.Background(), passengerInput(101, actor))
	assert.NoError(t, err)

	_, err = service.ProcessPayment(context.Background(), held.Reference, actor)
	assert.NoError(t, err)

	// Paying again from CONFIRMED is not a legal edge.
	var invalid *domain.InvalidTransitionError
	_, err = service.ProcessPayment(context.Background(), held.Reference, actor)
	assert.ErrorAs(t, err, &invalid)
}

func TestBookingService_ProcessPayment_Forbidden(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	held, err := service.CreateBooking(context.Background(), passengerInput(101, domain.Actor{ID: "user1"}))
	assert.NoError(t, err)

	_, err = service.ProcessPayment(context.Background(), held.Reference, domain.Actor{ID: "intruder"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	stored, err := store.GetBooking(context.Background(), held.Reference)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateSeatHeld, stored.State, "forbidden attempt must leave no partial state")
}

func TestBookingService_CancelBooking(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	actor := domain.Actor{ID: "user1"}
	held, err := service.CreateBooking(context.Background(), passengerInput(101, actor))
	assert.NoError(t, err)

	// Held bookings are not cancellable through this operation.
	_, err = service.CancelBooking(context.Background(), held.Reference, actor)
	var precondition *domain.BookingError
	assert.ErrorAs(t, err, &precondition)
	assert.EqualError(t, err, "only confirmed bookings can be cancelled")

	_, err = service.ProcessPayment(context.Background(), held.Reference, actor)
	assert.NoError(t, err)
	assert.True(t, store.seats[101].seat.IsBooked)

	b, err := service.CancelBooking(context.Background(), held.Reference, actor)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateCancelled, b.State)
	assert.Equal(t, testNow, b.CancelledAt)
	assert.False(t, store.seats[101].seat.IsBooked, "cancellation must free the seat")
}

func TestBookingService_RefundBooking(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	actor := domain.Actor{ID: "user1"}
	admin := domain.Actor{ID: "ops", Admin: true}
	held, err := service.CreateBooking(context.Background(), passengerInput(101, actor))
	assert.NoError(t, err)
	_, err = service.ProcessPayment(context.Background(), held.Reference, actor)
	assert.NoError(t, err)

	// Not cancelled yet.
	_, err = service.RefundBooking(context.Background(), held.Reference, admin)
	assert.EqualError(t, err, "only cancelled bookings can be refunded")

	_, err = service.CancelBooking(context.Background(), held.Reference, actor)
	assert.NoError(t, err)

	// Non-admin actors cannot refund.
	_, err = service.RefundBooking(context.Background(), held.Reference, actor)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	b, err := service.RefundBooking(context.Background(), held.Reference, admin)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateRefunded, b.State)
	assert.Equal(t, int64(500000), b.RefundAmount)
	assert.True(t, b.RefundProcessed)
	assert.Equal(t, testNow, b.RefundDate)

	// No double refund.
	_, err = service.RefundBooking(context.Background(), held.Reference, admin)
	assert.EqualError(t, err, "refund already processed")
}

func TestBookingService_ReleaseHold(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	actor := domain.Actor{ID: "user1"}
	held, err := service.CreateBooking(context.Background(), passengerInput(101, actor))
	assert.NoError(t, err)

	b, err := service.ReleaseHold(context.Background(), held.Reference, actor)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateCancelled, b.State)
	assert.False(t, store.seats[101].seat.IsBooked)

	// The seat can be claimed again once the hold is released.
	again, err := service.CreateBooking(context.Background(), passengerInput(101, domain.Actor{ID: "user2"}))
	assert.NoError(t, err)
	assert.Equal(t, domain.StateSeatHeld, again.State)

	// Releasing a non-held booking fails.
	_, err = service.ReleaseHold(context.Background(), b.Reference, actor)
	assert.EqualError(t, err, "only held bookings can be released")
}

func TestBookingService_GetBooking_Ownership(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	held, err := service.CreateBooking(context.Background(), passengerInput(101, domain.Actor{ID: "user1"}))
	assert.NoError(t, err)

	_, err = service.GetBooking(context.Background(), held.Reference, domain.Actor{ID: "user1"})
	assert.NoError(t, err)

	_, err = service.GetBooking(context.Background(), held.Reference, domain.Actor{ID: "intruder"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = service.GetBooking(context.Background(), held.Reference, domain.Actor{ID: "ops", Admin: true})
	assert.NoError(t, err)

	_, err = service.GetBooking(context.Background(), "no-such-reference", domain.Actor{ID: "user1"})
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

// Full lifecycle: hold, pay, cancel, refund on one seat.
func TestBookingService_Lifecycle(t *testing.T) {
	store := newMemStore()
	store.addSeat(101, "AI101", testNow.Add(24*time.Hour), 500000)
	service := newTestService(store, &payment.FixedGateway{Outcome: payment.OutcomeSuccess})

	user1 := domain.Actor{ID: "user1"}
	user2 := domain.Actor{ID: "user2"}
	admin := domain.Actor{ID: "ops", Admin: true}

	b1, err := service.CreateBooking(context.Background(), passengerInput(101, user1))
	assert.NoError(t, err)
	assert.Equal(t, domain.StateSeatHeld, b1.State)
	assert.Equal(t, testNow.Add(10*time.Minute), b1.HoldUntil)
	assert.Equal(t, int64(500000), b1.PaymentAmount)

	_, err = service.CreateBooking(context.Background(), passengerInput(101, user2))
	assert.ErrorIs(t, err, domain.ErrSeatUnavailable)

	b1, err = service.ProcessPayment(context.Background(), b1.Reference, user1)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateConfirmed, b1.State)
	assert.True(t, store.seats[101].seat.IsBooked)

	b1, err = service.CancelBooking(context.Background(), b1.Reference, user1)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateCancelled, b1.State)
	assert.False(t, store.seats[101].seat.IsBooked)

	b1, err = service.RefundBooking(context.Background(), b1.Reference, admin)
	assert.NoError(t, err)
	assert.Equal(t, domain.StateRefunded, b1.State)
	assert.Equal(t, int64(500000), b1.RefundAmount)
}
