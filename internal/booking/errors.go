package booking

import (
	"errors"
	"fmt"

	"github.com/iliyamo/reserve-my-spot/internal/model"
)

var (
	// ErrInvalidRange is returned when a range does not end after it starts
	// or has already ended.
	ErrInvalidRange = errors.New("end must be after start")
	// ErrInvalidRate is returned for a negative hourly rate.
	ErrInvalidRate = errors.New("hourly rate must not be negative")
	// ErrSlotFull means every unit of the slot is taken for part of the range.
	ErrSlotFull = errors.New("no slots available for the selected time")
	// ErrSlotUnavailable means the slot exists but was disabled by its owner.
	ErrSlotUnavailable = errors.New("slot is not accepting bookings")
	// ErrNotFound is returned for unknown slots, bookings, tokens and PINs.
	ErrNotFound = errors.New("not found")
	// ErrCodeSpaceExhausted means no free token or PIN could be drawn.
	ErrCodeSpaceExhausted = errors.New("access code space exhausted")
	// ErrOutsideWindow rejects a check-in too far from the booked range.
	ErrOutsideWindow = errors.New("outside the booking window")
	// ErrStoreUnavailable marks persistence failures the caller may retry.
	ErrStoreUnavailable = errors.New("booking store unavailable")
)

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// RejectReason tells the caller why a booking was not admitted.
type RejectReason string

const (
	ReasonValidation      RejectReason = "validation"
	ReasonInvalidRange    RejectReason = "invalid_range"
	ReasonSlotFull        RejectReason = "slot_full"
	ReasonSlotUnavailable RejectReason = "slot_unavailable"
)

// RejectedError is returned by CreateBooking when the request was refused
// before anything was persisted.
type RejectedError struct {
	Reason RejectReason
	Err    error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("booking rejected (%s): %v", e.Reason, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

func reject(reason RejectReason, err error) error {
	return &RejectedError{Reason: reason, Err: err}
}

// TransitionError is returned when a booking's current status does not
// allow the requested transition.
type TransitionError struct {
	ID   uint64
	From model.BookingStatus
	To   model.BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("booking %d is %s and cannot become %s", e.ID, e.From, e.To)
}

// StoreError wraps a persistence failure.  errors.Is(err,
// ErrStoreUnavailable) holds for every StoreError.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }
