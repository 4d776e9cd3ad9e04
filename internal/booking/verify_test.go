package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestResolveRoundTrip(t *testing.T) {
	f := newFixture(t, 1, "5")
	b := f.book(t, 10, 12)
	v := f.ledger.Verifier()
	ctx := context.Background()

	cases := []struct {
		name   string
		method Method
		value  string
	}{
		{"token", MethodToken, b.Token},
		{"token lowercase with separators", MethodToken, strings.ToLower(b.Token[:3] + " " + b.Token[3:6] + "-" + b.Token[6:])},
		{"pin", MethodPIN, b.PIN},
		{"pin with spaces", MethodPIN, " " + b.PIN + " "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := v.Resolve(ctx, tc.method, tc.value)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if res.Booking.ID != b.ID {
				t.Fatalf("booking id = %d, want %d", res.Booking.ID, b.ID)
			}
			if !res.Valid || !res.ValidUntil.Equal(hour(12).Add(15*time.Minute)) {
				t.Fatalf("valid=%v until=%v", res.Valid, res.ValidUntil)
			}
		})
	}
}

func TestResolveMalformedInput(t *testing.T) {
	f := newFixture(t, 1, "5")
	v := f.ledger.Verifier()
	cases := []struct {
		method Method
		value  string
		field  string
	}{
		{MethodToken, "ABC", "value"},
		{MethodPIN, "12a4", "value"},
		{MethodPIN, "12345", "value"},
		{Method("qr"), "whatever", "method"},
	}
	for _, tc := range cases {
		_, err := v.Resolve(context.Background(), tc.method, tc.value)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != tc.field {
			t.Fatalf("%s %q: err = %v, want ValidationError on %s", tc.method, tc.value, err, tc.field)
		}
	}
}

func TestResolveNotFoundAndExpired(t *testing.T) {
	f := newFixture(t, 1, "5")
	ctx := context.Background()
	v := f.ledger.Verifier()

	if _, err := v.Resolve(ctx, MethodToken, "ZZZZZZZZZ"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	b := f.book(t, 10, 12)
	f.clock.Set(hour(12).Add(15 * time.Minute))
	res, err := v.Resolve(ctx, MethodPIN, b.PIN)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("booking past its grace window reported valid")
	}

	if err := f.ledger.CancelBooking(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Resolve(ctx, MethodPIN, b.PIN); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cancelled booking: err = %v, want ErrNotFound", err)
	}
}
