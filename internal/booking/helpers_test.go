package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/reserve-my-spot/internal/model"
	"github.com/iliyamo/reserve-my-spot/internal/repository"
)

// day is the calendar day every fixture books on.
var day = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func hour(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingSink struct {
	ch chan Event
}

func (s *recordingSink) Publish(_ context.Context, ev Event) error {
	s.ch <- ev
	return nil
}

func (s *recordingSink) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-s.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return Event{}
	}
}

type fixture struct {
	store  *repository.MemoryStore
	slot   *model.Slot
	clock  *fakeClock
	inv    *Inventory
	codes  *CodeIssuer
	events *recordingSink
	ledger *Ledger
}

// newFixture builds a ledger over a memory store holding one active 4W
// slot with the given capacity and hourly rate.  The clock starts at
// 08:00 on day.
func newFixture(t *testing.T, capacity int, rate string) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := &model.Organization{Name: "City Mall", Email: "ops@citymall.example", TotalSlots4W: capacity}
	if err := store.CreateOrganization(ctx, org); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	slot := &model.Slot{
		OrganizationID: org.ID,
		Name:           "Basement",
		VehicleType:    model.FourWheeler,
		TotalCapacity:  capacity,
		HourlyRate:     decimal.RequireFromString(rate),
		IsActive:       true,
	}
	if err := store.CreateSlot(ctx, slot); err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	f := &fixture{
		store:  store,
		slot:   slot,
		clock:  &fakeClock{now: hour(8)},
		inv:    NewInventory(store),
		codes:  NewCodeIssuer(0),
		events: &recordingSink{ch: make(chan Event, 64)},
	}
	f.ledger = NewLedger(LedgerConfig{
		Store:       store,
		Catalog:     store,
		Inventory:   f.inv,
		Codes:       f.codes,
		Clock:       f.clock,
		Events:      f.events,
		GraceWindow: 15 * time.Minute,
	})
	return f
}

func (f *fixture) request(startHour, endHour int) CreateBookingRequest {
	return CreateBookingRequest{
		SlotID:        f.slot.ID,
		CustomerName:  "Asha Rao",
		Phone:         "+91 98765 43210",
		Email:         "asha@example.com",
		VehicleType:   "car",
		VehicleNumber: "mh-12 ab 1234",
		Start:         hour(startHour),
		End:           hour(endHour),
	}
}

func (f *fixture) book(t *testing.T, startHour, endHour int) *model.Booking {
	t.Helper()
	b, err := f.ledger.CreateBooking(context.Background(), f.request(startHour, endHour))
	if err != nil {
		t.Fatalf("CreateBooking [%d,%d): %v", startHour, endHour, err)
	}
	return b
}
