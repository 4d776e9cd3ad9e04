package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// ComputeCost prices a range at an hourly rate: hours × rate, rounded
// half-up to two decimal places.  The division happens last so the
// result is exact before rounding.
func ComputeCost(r TimeRange, hourlyRate decimal.Decimal) (decimal.Decimal, error) {
	if hourlyRate.IsNegative() {
		return decimal.Zero, ErrInvalidRate
	}
	nanos := decimal.NewFromInt(int64(r.Duration()))
	return hourlyRate.Mul(nanos).DivRound(nanosPerHour, 2), nil
}
