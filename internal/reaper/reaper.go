package reaper

import (
	"context"
	"log"
	"time"

	"github.com/skyfare/airbooking/internal/domain"
	"github.com/skyfare/airbooking/internal/repository"
)

// Producer publishes expiry events; nil disables publishing.
type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Report aggregates one sweep. Failures are counted, never raised.
type Report struct {
	Expired int
	Failed  int
}

// Reaper periodically expires seat holds whose deadline has lapsed. Each
// booking is expired in its own transaction so one failure cannot abort the
// rest of the sweep, and a payment committing mid-sweep simply wins the race.
type Reaper struct {
	store       repository.Store
	producer    Producer
	eventsTopic string
	interval    time.Duration
	now         func() time.Time
}

type Option func(*Reaper)

func WithClock(now func() time.Time) Option {
	return func(r *Reaper) {
		r.now = now
	}
}

func WithProducer(producer Producer, topic string) Option {
	return func(r *Reaper) {
		r.producer = producer
		r.eventsTopic = topic
	}
}

func New(store repository.Store, interval time.Duration, opts ...Option) *Reaper {
	r := &Reaper{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
	if r.interval <= 0 {
		r.interval = time.Minute
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sweeps on the configured interval until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report := r.Sweep(ctx)
			if report.Expired > 0 || report.Failed > 0 {
				log.Printf("reaper: expired %d booking(s), %d failure(s)", report.Expired, report.Failed)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Sweep expires every booking whose hold deadline lies in the past.
func (r *Reaper) Sweep(ctx context.Context) Report {
	var report Report

	refs, err := r.store.ExpiredHolds(ctx, r.now())
	if err != nil {
		log.Printf("reaper: list expired holds: %v", err)
		return report
	}

	for _, ref := range refs {
		if err := r.expire(ctx, ref); err != nil {
			log.Printf("reaper: failed to expire booking %s: %v", ref, err)
			report.Failed++
			continue
		}
		report.Expired++
	}
	return report
}

func (r *Reaper) expire(ctx context.Context, reference string) error {
	var expired *domain.Booking
	err := r.store.WithinTx(ctx, func(tx repository.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		// Re-check under the lock: a payment or release that committed
		// after the candidate query makes this transition illegal.
		if !b.HoldUntil.Before(r.now()) {
			return domain.NewBookingError("hold deadline not reached")
		}
		if err := domain.Transition(b, domain.StateExpired); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		expired = b
		return nil
	})
	if err != nil {
		return err
	}

	if r.producer != nil && r.eventsTopic != "" {
		if err := r.producer.Publish(ctx, r.eventsTopic, expired.Reference, expiredEvent(expired)); err != nil {
			log.Printf("reaper: failed to publish expiry event for booking %s: %v", expired.Reference, err)
		}
	}
	return nil
}
