package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/reserve-my-spot/internal/model"
)

// OrganizationStore is the organization persistence used by handlers.
type OrganizationStore interface {
	CreateOrganization(ctx context.Context, o *model.Organization) error
	GetOrganization(ctx context.Context, id uint64) (*model.Organization, error)
	GetOrganizationByEmail(ctx context.Context, email string) (*model.Organization, error)
	ListOrganizations(ctx context.Context) ([]model.Organization, error)
}

// SlotStore is the slot persistence used by handlers.
type SlotStore interface {
	GetSlot(ctx context.Context, id uint64) (*model.Slot, error)
	ListActiveSlots(ctx context.Context) ([]model.Slot, error)
	ListSlotsByOrganization(ctx context.Context, orgID uint64) ([]model.Slot, error)
	CreateSlot(ctx context.Context, s *model.Slot) error
	UpdateSlot(ctx context.Context, orgID, id uint64, u model.SlotUpdate) (*model.Slot, error)
}

// BookingQueries are the read-only booking queries behind the operator
// and admin views.
type BookingQueries interface {
	ListBookingsByOrganization(ctx context.Context, orgID uint64) ([]model.Booking, error)
	ListBookings(ctx context.Context, limit int) ([]model.Booking, error)
	CountActiveBookings(ctx context.Context, orgID uint64, now time.Time) (int, error)
	RevenueBetween(ctx context.Context, orgID uint64, from, to time.Time) (decimal.Decimal, error)
}
