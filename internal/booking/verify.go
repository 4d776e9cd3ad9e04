package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/reserve-my-spot/internal/model"
	"github.com/iliyamo/reserve-my-spot/internal/repository"
)

// Method selects which access code a gate lookup uses.
type Method string

const (
	MethodToken Method = "token"
	MethodPIN   Method = "pin"
)

// Resolution is the result of a gate lookup.
type Resolution struct {
	Booking    model.Booking
	Valid      bool
	ValidUntil time.Time
}

// Verifier resolves access codes to active bookings.  It never changes
// booking state.
type Verifier struct {
	store BookingStore
	clock Clock
	grace time.Duration
}

// NewVerifier returns a Verifier.  A nil clock means the system clock.
func NewVerifier(store BookingStore, clock Clock, grace time.Duration) *Verifier {
	if clock == nil {
		clock = RealClock{}
	}
	return &Verifier{store: store, clock: clock, grace: grace}
}

// NormalizeToken uppercases s and keeps only A-Z and 0-9.
func NormalizeToken(s string) string {
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}

// ValidPIN reports whether s is exactly four ASCII digits.
func ValidPIN(s string) bool {
	if len(s) != PINLength {
		return false
	}
	return countDigits(s) == PINLength
}

// Resolve finds the active booking holding value as its token or PIN.
// Valid reports whether the current time is before the end of the booking
// plus the grace window.
func (v *Verifier) Resolve(ctx context.Context, method Method, value string) (*Resolution, error) {
	var (
		b   *model.Booking
		err error
	)
	switch method {
	case MethodToken:
		tok := NormalizeToken(value)
		if len(tok) != TokenLength {
			return nil, &ValidationError{Field: "value", Reason: "token must be 9 letters or digits"}
		}
		b, err = v.store.FindActiveByToken(ctx, tok)
	case MethodPIN:
		pin := strings.TrimSpace(value)
		if !ValidPIN(pin) {
			return nil, &ValidationError{Field: "value", Reason: "pin must be 4 digits"}
		}
		b, err = v.store.FindActiveByPIN(ctx, pin)
	default:
		return nil, &ValidationError{Field: "method", Reason: "must be token or pin"}
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "find booking by code", Err: err}
	}
	until := b.EndAt.Add(v.grace)
	return &Resolution{
		Booking:    *b,
		Valid:      v.clock.Now().Before(until),
		ValidUntil: until,
	}, nil
}
