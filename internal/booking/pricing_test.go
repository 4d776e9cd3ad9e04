package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestComputeCost(t *testing.T) {
	cases := []struct {
		name string
		dur  time.Duration
		rate string
		want string
	}{
		{"two hours at 5", 2 * time.Hour, "5.00", "10.00"},
		{"two hours at fractional rate", 2 * time.Hour, "12.345", "24.69"},
		{"ninety minutes", 90 * time.Minute, "10", "15.00"},
		{"twenty minutes rounds down", 20 * time.Minute, "10", "3.33"},
		{"half cent rounds up", 15 * time.Minute, "0.10", "0.03"},
		{"free slot", 3 * time.Hour, "0", "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewTimeRange(hour(10), hour(10).Add(tc.dur))
			if err != nil {
				t.Fatal(err)
			}
			got, err := ComputeCost(r, decimal.RequireFromString(tc.rate))
			if err != nil {
				t.Fatalf("ComputeCost: %v", err)
			}
			if got.StringFixed(2) != tc.want {
				t.Fatalf("cost = %s, want %s", got.StringFixed(2), tc.want)
			}
		})
	}
}

func TestComputeCostTwoHoursIsTwiceRate(t *testing.T) {
	r, _ := NewTimeRange(hour(10), hour(12))
	for _, s := range []string{"1", "7.25", "99.99", "0.01"} {
		rate := decimal.RequireFromString(s)
		got, err := ComputeCost(r, rate)
		if err != nil {
			t.Fatal(err)
		}
		if want := rate.Mul(decimal.NewFromInt(2)); !got.Equal(want) {
			t.Fatalf("rate %s: cost = %s, want %s", s, got, want)
		}
	}
}

func TestComputeCostRejectsNegativeRate(t *testing.T) {
	r, _ := NewTimeRange(hour(10), hour(11))
	if _, err := ComputeCost(r, decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("err = %v, want ErrInvalidRate", err)
	}
}
