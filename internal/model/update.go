package model

import "github.com/shopspring/decimal"

// SlotUpdate lists the slot fields an owner may change.  Nil fields are
// left untouched.
type SlotUpdate struct {
	TotalCapacity *int
	HourlyRate    *decimal.Decimal
	Features      []string
	IsActive      *bool
}
