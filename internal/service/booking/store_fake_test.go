package booking

import (
	"context"
	"sync"
	"time"

	"github.com/skyfare/airbooking/internal/domain"
	"github.com/skyfare/airbooking/internal/repository"
)

// memStore is an in-memory repository.Store. WithinTx serializes callers on
// a mutex and restores a snapshot on error, mirroring the commit/rollback
// behaviour the postgres store gets from transactions.
type memStore struct {
	mu       sync.Mutex
	seats    map[int64]*memSeat
	bookings map[string]*domain.Booking
	nextID   int64
}

type memSeat struct {
	seat          domain.Seat
	flightCode    string
	departureTime time.Time
	priceCents    int64
}

func newMemStore() *memStore {
	return &memStore{
		seats:    make(map[int64]*memSeat),
		bookings: make(map[string]*domain.Booking),
	}
}

func (s *memStore) addSeat(id int64, flightCode string, departure time.Time, priceCents int64) {
	s.seats[id] = &memSeat{
		seat:          domain.Seat{ID: id, SeatNumber: "S", SeatClass: domain.SeatClassEconomy},
		flightCode:    flightCode,
		departureTime: departure,
		priceCents:    priceCents,
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seats, bookings, next := s.snapshot()
	if err := fn(&memTx{store: s}); err != nil {
		s.seats, s.bookings, s.nextID = seats, bookings, next
		return err
	}
	return nil
}

func (s *memStore) GetBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getBooking(reference)
}

func (s *memStore) ListBookingsByOwner(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Booking
	for _, b := range s.bookings {
		if b.OwnerID == ownerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memStore) ExpiredHolds(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var refs []string
	for ref, b := range s.bookings {
		if b.State == domain.StateSeatHeld && b.HoldUntil.Before(now) {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (s *memStore) getBooking(reference string) (*domain.Booking, error) {
	b, ok := s.bookings[reference]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *memStore) snapshot() (map[int64]*memSeat, map[string]*domain.Booking, int64) {
	seats := make(map[int64]*memSeat, len(s.seats))
	for id, ms := range s.seats {
		copied := *ms
		seats[id] = &copied
	}
	bookings := make(map[string]*domain.Booking, len(s.bookings))
	for ref, b := range s.bookings {
		copied := *b
		bookings[ref] = &copied
	}
	return seats, bookings, s.nextID
}

type memTx struct {
	store *memStore
}

func (t *memTx) Seats() repository.SeatLedger           { return &memLedger{store: t.store} }
func (t *memTx) Bookings() repository.BookingRepository { return &memBookings{store: t.store} }

type memLedger struct {
	store *memStore
}

func (l *memLedger) Claim(ctx context.Context, seatID int64, now time.Time) (*repository.ClaimedSeat, error) {
	ms, ok := l.store.seats[seatID]
	if !ok {
		return nil, domain.ErrSeatNotFound
	}
	if ms.seat.IsBooked {
		return nil, domain.ErrSeatUnavailable
	}
	if !ms.departureTime.After(now) {
		return nil, domain.ErrSeatUnavailable
	}
	for _, b := range l.store.bookings {
		if b.SeatID == seatID && b.State.Active() {
			return nil, domain.ErrSeatUnavailable
		}
	}
	return &repository.ClaimedSeat{
		Seat:          ms.seat,
		FlightCode:    ms.flightCode,
		DepartureTime: ms.departureTime,
		PriceCents:    ms.priceCents,
	}, nil
}

func (l *memLedger) SetBooked(ctx context.Context, seatID int64) error {
	return l.setBooked(seatID, true)
}

func (l *memLedger) ClearBooked(ctx context.Context, seatID int64) error {
	return l.setBooked(seatID, false)
}

func (l *memLedger) setBooked(seatID int64, booked bool) error {
	ms, ok := l.store.seats[seatID]
	if !ok {
		return domain.ErrSeatNotFound
	}
	ms.seat.IsBooked = booked
	return nil
}

type memBookings struct {
	store *memStore
}

func (r *memBookings) Create(ctx context.Context, b *domain.Booking) error {
	r.store.nextID++
	b.ID = r.store.nextID
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	copied := *b
	r.store.bookings[b.Reference] = &copied
	return nil
}

func (r *memBookings) GetForUpdate(ctx context.Context, reference string) (*domain.Booking, error) {
	return r.store.getBooking(reference)
}

func (r *memBookings) Update(ctx context.Context, b *domain.Booking) error {
	if _, ok := r.store.bookings[b.Reference]; !ok {
		return domain.ErrBookingNotFound
	}
	b.UpdatedAt = time.Now()
	copied := *b
	r.store.bookings[b.Reference] = &copied
	return nil
}

var _ repository.Store = (*memStore)(nil)
