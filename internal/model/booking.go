package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCheckedIn BookingStatus = "CHECKED_IN"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Active reports whether a booking still holds capacity and access codes.
func (s BookingStatus) Active() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

// Booking is one customer's reservation of a single unit of slot
// capacity for a time range.
//
// Fields:
//  ID            – primary key identifier.
//  SlotID        – reserved slot.
//  HoldID        – inventory handle holding the capacity unit.
//  CustomerName, Phone, Email – customer contact.
//  VehicleType, VehicleNumber, VehicleBrand – vehicle details; the
//                  number is stored normalised (uppercase, no spaces).
//  StartAt, EndAt – half-open booked range, UTC.
//  TotalCost     – hours × rate, computed with the rate at creation.
//  Status        – lifecycle state.
//  Token         – 9-character gate token.
//  PIN           – 4-digit gate PIN.
//  CheckedInAt   – when the customer was checked in (nullable).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            uint64          // bookings.id
	SlotID        uint64          // bookings.slot_id
	HoldID        string          // bookings.hold_id
	CustomerName  string          // bookings.customer_name
	Phone         string          // bookings.phone_number
	Email         string          // bookings.email
	VehicleType   VehicleType     // bookings.vehicle_type
	VehicleNumber string          // bookings.vehicle_number
	VehicleBrand  string          // bookings.vehicle_brand
	StartAt       time.Time       // bookings.start_datetime
	EndAt         time.Time       // bookings.end_datetime
	TotalCost     decimal.Decimal // bookings.total_cost
	Status        BookingStatus   // bookings.status
	Token         string          // bookings.token
	PIN           string          // bookings.pin
	CheckedInAt   *time.Time      // bookings.checked_in_at (nullable)
	CreatedAt     time.Time       // bookings.created_at
	UpdatedAt     time.Time       // bookings.updated_at
}
