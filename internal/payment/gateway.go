package payment

import (
	"context"
	"math/rand"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// Gateway charges a booking. The outcome is non-deterministic from the
// service's point of view; the call must never run inside a database
// transaction since it can be slow.
type Gateway interface {
	Charge(ctx context.Context, amountCents int64, bookingRef string) (Outcome, error)
}

// RandomGateway simulates a payment provider that succeeds or fails at
// random. Used for local runs; tests inject FixedGateway instead.
type RandomGateway struct{}

func NewRandomGateway() *RandomGateway {
	return &RandomGateway{}
}

func (g *RandomGateway) Charge(ctx context.Context, amountCents int64, bookingRef string) (Outcome, error) {
	if rand.Intn(2) == 0 {
		return OutcomeSuccess, nil
	}
	return OutcomeFailure, nil
}

// FixedGateway always returns the configured outcome.
type FixedGateway struct {
	Outcome Outcome
}

func (g *FixedGateway) Charge(ctx context.Context, amountCents int64, bookingRef string) (Outcome, error) {
	return g.Outcome, nil
}

var _ Gateway = (*RandomGateway)(nil)
var _ Gateway = (*FixedGateway)(nil)
