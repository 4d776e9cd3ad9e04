package booking

import (
	"context"
	"time"

	"github.com/iliyamo/reserve-my-spot/internal/model"
)

// BookingStore persists bookings.  Implementations return
// repository.ErrNotFound for missing rows and repository.ErrDuplicate when
// an active token or PIN is already taken.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uint64, status model.BookingStatus, at time.Time) error
	FindActiveByToken(ctx context.Context, token string) (*model.Booking, error)
	FindActiveByPIN(ctx context.Context, pin string) (*model.Booking, error)
	ListActiveBookings(ctx context.Context) ([]model.Booking, error)
	ListExpiredBookings(ctx context.Context, endedBy time.Time) ([]model.Booking, error)
}

// SlotCatalog resolves slots by id.
type SlotCatalog interface {
	GetSlot(ctx context.Context, id uint64) (*model.Slot, error)
}

// EventType names a booking lifecycle event.
type EventType string

const (
	EventConfirmed EventType = "booking.confirmed"
	EventCancelled EventType = "booking.cancelled"
)

// Event is emitted after a booking transition has been persisted.
type Event struct {
	Type    EventType
	Booking model.Booking
	Slot    *model.Slot
	At      time.Time
}

// EventSink receives lifecycle events.  Delivery is best effort.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}
