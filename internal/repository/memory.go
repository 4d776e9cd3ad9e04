package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/reserve-my-spot/internal/model"
)

// MemoryStore keeps organizations, slots and bookings in process memory.
// It implements the same methods as the MySQL repositories and backs the
// server when STORE_DRIVER=memory.
type MemoryStore struct {
	mu       sync.RWMutex
	orgs     map[uint64]model.Organization
	slots    map[uint64]model.Slot
	bookings map[uint64]model.Booking
	nextID   uint64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:     make(map[uint64]model.Organization),
		slots:    make(map[uint64]model.Slot),
		bookings: make(map[uint64]model.Booking),
	}
}

func (m *MemoryStore) id() uint64 {
	m.nextID++
	return m.nextID
}

// CreateOrganization stores o and sets its ID.
func (m *MemoryStore) CreateOrganization(_ context.Context, o *model.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))
	for _, existing := range m.orgs {
		if existing.Email == o.Email {
			return ErrEmailExists
		}
	}
	o.ID = m.id()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	m.orgs[o.ID] = *o
	return nil
}

// GetOrganization fetches an organization by id.
func (m *MemoryStore) GetOrganization(_ context.Context, id uint64) (*model.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

// GetOrganizationByEmail fetches an organization by normalized email.
func (m *MemoryStore) GetOrganizationByEmail(_ context.Context, email string) (*model.Organization, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orgs {
		if o.Email == email {
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

// ListOrganizations returns every organization ordered by id.
func (m *MemoryStore) ListOrganizations(_ context.Context) ([]model.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Organization, 0, len(m.orgs))
	for _, o := range m.orgs {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateSlot stores s and sets its ID.  The organization must exist.
func (m *MemoryStore) CreateSlot(_ context.Context, s *model.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[s.OrganizationID]; !ok {
		return ErrNotFound
	}
	s.ID = m.id()
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	m.slots[s.ID] = *s
	return nil
}

// withOrg fills the organization summary fields.  Callers hold m.mu.
func (m *MemoryStore) withOrg(s model.Slot) model.Slot {
	if o, ok := m.orgs[s.OrganizationID]; ok {
		s.OrganizationName = o.Name
		s.OrganizationAddress = o.Address
		s.OrganizationCity = o.City
		s.PlatePattern = o.PlatePattern
	}
	return s
}

// GetSlot fetches a slot by id.
func (m *MemoryStore) GetSlot(_ context.Context, id uint64) (*model.Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	s = m.withOrg(s)
	return &s, nil
}

func (m *MemoryStore) slotsWhere(keep func(model.Slot) bool) []model.Slot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Slot, 0)
	for _, s := range m.slots {
		if keep(s) {
			out = append(out, m.withOrg(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListActiveSlots returns every slot still accepting bookings.
func (m *MemoryStore) ListActiveSlots(_ context.Context) ([]model.Slot, error) {
	return m.slotsWhere(func(s model.Slot) bool { return s.IsActive }), nil
}

// ListSlotsByOrganization returns all slots of one organization.
func (m *MemoryStore) ListSlotsByOrganization(_ context.Context, orgID uint64) ([]model.Slot, error) {
	return m.slotsWhere(func(s model.Slot) bool { return s.OrganizationID == orgID }), nil
}

// UpdateSlot applies u to slot id on behalf of orgID.
func (m *MemoryStore) UpdateSlot(_ context.Context, orgID, id uint64, u model.SlotUpdate) (*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.OrganizationID != orgID {
		return nil, ErrForbidden
	}
	if u.TotalCapacity != nil {
		s.TotalCapacity = *u.TotalCapacity
	}
	if u.HourlyRate != nil {
		s.HourlyRate = *u.HourlyRate
	}
	if u.Features != nil {
		s.Features = append([]string(nil), u.Features...)
	}
	if u.IsActive != nil {
		s.IsActive = *u.IsActive
	}
	s.UpdatedAt = time.Now().UTC()
	m.slots[id] = s
	s = m.withOrg(s)
	return &s, nil
}

// CreateBooking stores b and sets its ID.  It returns ErrDuplicate when
// the token or PIN is held by another active booking.
func (m *MemoryStore) CreateBooking(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[b.SlotID]; !ok {
		return ErrNotFound
	}
	if b.Status.Active() {
		for _, other := range m.bookings {
			if other.Status.Active() && (other.Token == b.Token || other.PIN == b.PIN) {
				return ErrDuplicate
			}
		}
	}
	b.ID = m.id()
	m.bookings[b.ID] = *b
	return nil
}

// GetBooking fetches a booking by id.
func (m *MemoryStore) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

// UpdateBookingStatus sets the status and, for check-ins, CheckedInAt.
func (m *MemoryStore) UpdateBookingStatus(_ context.Context, id uint64, status model.BookingStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = at
	if status == model.StatusCheckedIn {
		t := at
		b.CheckedInAt = &t
	}
	m.bookings[id] = b
	return nil
}

func (m *MemoryStore) findActive(match func(model.Booking) bool) (*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookings {
		if b.Status.Active() && match(b) {
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

// FindActiveByToken returns the active booking holding token.
func (m *MemoryStore) FindActiveByToken(_ context.Context, token string) (*model.Booking, error) {
	return m.findActive(func(b model.Booking) bool { return b.Token == token })
}

// FindActiveByPIN returns the active booking holding pin.
func (m *MemoryStore) FindActiveByPIN(_ context.Context, pin string) (*model.Booking, error) {
	return m.findActive(func(b model.Booking) bool { return b.PIN == pin })
}

func (m *MemoryStore) bookingsWhere(keep func(model.Booking) bool, less func(a, b model.Booking) bool) []model.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Booking, 0)
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byID(a, b model.Booking) bool { return a.ID < b.ID }

// ListActiveBookings returns every Confirmed or CheckedIn booking.
func (m *MemoryStore) ListActiveBookings(_ context.Context) ([]model.Booking, error) {
	return m.bookingsWhere(func(b model.Booking) bool { return b.Status.Active() }, byID), nil
}

// ListExpiredBookings returns active bookings whose range ended at or
// before endedBy.
func (m *MemoryStore) ListExpiredBookings(_ context.Context, endedBy time.Time) ([]model.Booking, error) {
	return m.bookingsWhere(func(b model.Booking) bool {
		return b.Status.Active() && !b.EndAt.After(endedBy)
	}, func(a, b model.Booking) bool { return a.EndAt.Before(b.EndAt) }), nil
}

func (m *MemoryStore) slotOrg(slotID uint64) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots[slotID].OrganizationID
}

// ListBookingsByOrganization returns the bookings on any slot of orgID,
// newest first.
func (m *MemoryStore) ListBookingsByOrganization(_ context.Context, orgID uint64) ([]model.Booking, error) {
	owned := m.slotsWhere(func(s model.Slot) bool { return s.OrganizationID == orgID })
	ids := make(map[uint64]bool, len(owned))
	for _, s := range owned {
		ids[s.ID] = true
	}
	return m.bookingsWhere(func(b model.Booking) bool { return ids[b.SlotID] }, func(a, b model.Booking) bool {
		if a.StartAt.Equal(b.StartAt) {
			return a.ID > b.ID
		}
		return a.StartAt.After(b.StartAt)
	}), nil
}

// ListBookings returns the most recent bookings across all organizations.
func (m *MemoryStore) ListBookings(_ context.Context, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	out := m.bookingsWhere(func(model.Booking) bool { return true }, func(a, b model.Booking) bool { return a.ID > b.ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountActiveBookings counts active bookings of orgID that have not ended
// by now.
func (m *MemoryStore) CountActiveBookings(_ context.Context, orgID uint64, now time.Time) (int, error) {
	n := 0
	for _, b := range m.bookingsWhere(func(b model.Booking) bool {
		return b.Status.Active() && !b.EndAt.Before(now)
	}, byID) {
		if m.slotOrg(b.SlotID) == orgID {
			n++
		}
	}
	return n, nil
}

// RevenueBetween sums the cost of non-cancelled bookings of orgID that
// start in [from, to).
func (m *MemoryStore) RevenueBetween(_ context.Context, orgID uint64, from, to time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, b := range m.bookingsWhere(func(b model.Booking) bool {
		return b.Status != model.StatusCancelled && !b.StartAt.Before(from) && b.StartAt.Before(to)
	}, byID) {
		if m.slotOrg(b.SlotID) == orgID {
			sum = sum.Add(b.TotalCost)
		}
	}
	return sum, nil
}
