package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/reserve-my-spot/internal/model"
)

func seedMemory(t *testing.T) (*MemoryStore, *model.Organization, *model.Slot) {
	t.Helper()
	ctx := context.Background()
	m := NewMemoryStore()
	org := &model.Organization{Name: "Central Mall", City: "Pune", Email: "Owner@Example.com"}
	if err := m.CreateOrganization(ctx, org); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	slot := &model.Slot{OrganizationID: org.ID, Name: "P1", VehicleType: model.FourWheeler,
		TotalCapacity: 2, HourlyRate: decimal.NewFromInt(50), IsActive: true}
	if err := m.CreateSlot(ctx, slot); err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	return m, org, slot
}

func TestMemoryOrganizationEmailUnique(t *testing.T) {
	m, _, _ := seedMemory(t)
	err := m.CreateOrganization(context.Background(), &model.Organization{Email: "owner@example.com "})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
	o, err := m.GetOrganizationByEmail(context.Background(), "OWNER@example.com")
	if err != nil || o.Name != "Central Mall" {
		t.Fatalf("GetOrganizationByEmail = %v, %v", o, err)
	}
}

func TestMemorySlotCarriesOrganization(t *testing.T) {
	m, _, slot := seedMemory(t)
	s, err := m.GetSlot(context.Background(), slot.ID)
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if s.OrganizationName != "Central Mall" || s.OrganizationCity != "Pune" {
		t.Fatalf("slot org fields = %q/%q", s.OrganizationName, s.OrganizationCity)
	}
}

func TestMemoryUpdateSlotOwnership(t *testing.T) {
	m, org, slot := seedMemory(t)
	active := false
	if _, err := m.UpdateSlot(context.Background(), org.ID+100, slot.ID, model.SlotUpdate{IsActive: &active}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if _, err := m.UpdateSlot(context.Background(), org.ID, 999, model.SlotUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	s, err := m.UpdateSlot(context.Background(), org.ID, slot.ID, model.SlotUpdate{IsActive: &active})
	if err != nil || s.IsActive {
		t.Fatalf("UpdateSlot = %+v, %v", s, err)
	}
	list, _ := m.ListActiveSlots(context.Background())
	if len(list) != 0 {
		t.Fatalf("active slots = %d, want 0", len(list))
	}
}

func TestMemoryActiveCodesUnique(t *testing.T) {
	m, _, slot := seedMemory(t)
	ctx := context.Background()
	at := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	first := &model.Booking{SlotID: slot.ID, Status: model.StatusConfirmed, Token: "AAAAA1111", PIN: "0001",
		StartAt: at, EndAt: at.Add(time.Hour), TotalCost: decimal.NewFromInt(50)}
	if err := m.CreateBooking(ctx, first); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	dup := &model.Booking{SlotID: slot.ID, Status: model.StatusConfirmed, Token: "BBBBB2222", PIN: "0001"}
	if err := m.CreateBooking(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	if err := m.UpdateBookingStatus(ctx, first.ID, model.StatusCancelled, at); err != nil {
		t.Fatalf("UpdateBookingStatus: %v", err)
	}
	if _, err := m.FindActiveByPIN(ctx, "0001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindActiveByPIN after cancel = %v, want ErrNotFound", err)
	}
	if err := m.CreateBooking(ctx, dup); err != nil {
		t.Fatalf("reuse after cancel: %v", err)
	}
}

func TestMemoryStats(t *testing.T) {
	m, org, slot := seedMemory(t)
	ctx := context.Background()
	at := time.Date(2030, 1, 10, 10, 0, 0, 0, time.UTC)
	add := func(status model.BookingStatus, token, pin string, cost int64) {
		b := &model.Booking{SlotID: slot.ID, Status: status, Token: token, PIN: pin,
			StartAt: at, EndAt: at.Add(time.Hour), TotalCost: decimal.NewFromInt(cost)}
		if err := m.CreateBooking(ctx, b); err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
	}
	add(model.StatusConfirmed, "AAAAA1111", "0001", 50)
	add(model.StatusCompleted, "BBBBB2222", "0002", 100)
	add(model.StatusCancelled, "CCCCC3333", "0003", 70)

	n, _ := m.CountActiveBookings(ctx, org.ID, at)
	if n != 1 {
		t.Fatalf("CountActiveBookings = %d, want 1", n)
	}
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	rev, _ := m.RevenueBetween(ctx, org.ID, from, from.AddDate(0, 1, 0))
	if !rev.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("RevenueBetween = %s, want 150", rev)
	}
	expired, _ := m.ListExpiredBookings(ctx, at.Add(2*time.Hour))
	if len(expired) != 1 || expired[0].Token != "AAAAA1111" {
		t.Fatalf("ListExpiredBookings = %+v", expired)
	}
	all, _ := m.ListBookings(ctx, 2)
	if len(all) != 2 || all[0].ID < all[1].ID {
		t.Fatalf("ListBookings = %d rows, want 2 newest first", len(all))
	}
}
