package booking

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/reserve-my-spot/internal/model"
	"github.com/iliyamo/reserve-my-spot/internal/repository"
)

const publishTimeout = 5 * time.Second

// LedgerConfig wires a Ledger.  Store, Catalog, Inventory and Codes are
// required; the rest have defaults.
type LedgerConfig struct {
	Store        BookingStore
	Catalog      SlotCatalog
	Inventory    *Inventory
	Codes        *CodeIssuer
	Clock        Clock
	Events       EventSink
	GraceWindow  time.Duration
	PlatePattern *regexp.Regexp
}

// Ledger owns the booking lifecycle.  Every transition of a booking runs
// under the lock of the booking's slot.
type Ledger struct {
	store   BookingStore
	catalog SlotCatalog
	inv     *Inventory
	codes   *CodeIssuer
	clock   Clock
	events  EventSink
	grace   time.Duration
	plate   *regexp.Regexp
	plates  plateCache

	locks slotLocks
}

// NewLedger constructs a Ledger.  It panics when a required dependency is
// missing.
func NewLedger(cfg LedgerConfig) *Ledger {
	if cfg.Store == nil || cfg.Catalog == nil || cfg.Inventory == nil || cfg.Codes == nil {
		panic("nil dependency passed to NewLedger")
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.PlatePattern == nil {
		cfg.PlatePattern = DefaultPlatePattern
	}
	return &Ledger{
		store:   cfg.Store,
		catalog: cfg.Catalog,
		inv:     cfg.Inventory,
		codes:   cfg.Codes,
		clock:   cfg.Clock,
		events:  cfg.Events,
		grace:   cfg.GraceWindow,
		plate:   cfg.PlatePattern,
		locks:   slotLocks{m: make(map[uint64]*sync.Mutex)},
	}
}

// platePatternFor returns the organization's plate pattern for slot, or
// the ledger default when it has none or it does not compile.
func (l *Ledger) platePatternFor(slot *model.Slot) *regexp.Regexp {
	if slot.PlatePattern == "" {
		return l.plate
	}
	if re := l.plates.get(slot.PlatePattern); re != nil {
		return re
	}
	return l.plate
}

// Verifier returns a VerificationService sharing the ledger's store,
// clock and grace window.
func (l *Ledger) Verifier() *Verifier {
	return NewVerifier(l.store, l.clock, l.grace)
}

// CreateBooking validates the request, admits it against the slot's
// capacity, prices it, issues access codes and persists it as Confirmed.
// A failure after admission releases the held capacity.
func (l *Ledger) CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slot, err := l.getSlot(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	b, err := buildBooking(req, slot, l.platePatternFor(slot))
	if err != nil {
		return nil, reject(ReasonValidation, err)
	}
	rng, err := NewTimeRange(req.Start, req.End)
	if err == nil && !rng.End.After(l.clock.Now()) {
		err = fmt.Errorf("%w: range has already ended", ErrInvalidRange)
	}
	if err != nil {
		return nil, reject(ReasonInvalidRange, err)
	}

	unlock := l.locks.lock(slot.ID)
	defer unlock()

	handle, err := l.inv.Reserve(ctx, slot.ID, rng)
	switch {
	case errors.Is(err, ErrSlotFull):
		return nil, reject(ReasonSlotFull, err)
	case errors.Is(err, ErrSlotUnavailable):
		return nil, reject(ReasonSlotUnavailable, err)
	case err != nil:
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			l.inv.Release(handle)
		}
	}()

	cost, err := ComputeCost(rng, slot.HourlyRate)
	if err != nil {
		return nil, err
	}
	now := l.clock.Now()
	b.HoldID = string(handle)
	b.StartAt, b.EndAt = rng.Start, rng.End
	b.TotalCost = cost
	b.Status = model.StatusConfirmed
	b.CreatedAt, b.UpdatedAt = now, now

	if err := l.persistWithCodes(ctx, b); err != nil {
		return nil, err
	}
	committed = true
	l.publish(EventConfirmed, *b, slot)
	return b, nil
}

// persistWithCodes issues codes and inserts b, redrawing when the store
// reports an active code clash.
func (l *Ledger) persistWithCodes(ctx context.Context, b *model.Booking) error {
	for attempt := 0; attempt < l.codes.maxAttempts; attempt++ {
		codes, err := l.codes.Issue()
		if err != nil {
			return err
		}
		b.Token, b.PIN = codes.Token, codes.PIN
		err = l.store.CreateBooking(ctx, b)
		if err == nil {
			return nil
		}
		l.codes.Release(codes)
		if !errors.Is(err, repository.ErrDuplicate) {
			return &StoreError{Op: "create booking", Err: err}
		}
	}
	b.Token, b.PIN = "", ""
	return fmt.Errorf("store rejected every drawn code: %w", ErrCodeSpaceExhausted)
}

// CancelBooking moves a Pending or Confirmed booking to Cancelled and
// frees its capacity and codes.  Cancelling twice is a no-op.
func (l *Ledger) CancelBooking(ctx context.Context, id uint64) error {
	b, unlock, err := l.lockBooking(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	switch b.Status {
	case model.StatusCancelled:
		return nil
	case model.StatusPending, model.StatusConfirmed:
	default:
		return &TransitionError{ID: id, From: b.Status, To: model.StatusCancelled}
	}
	now := l.clock.Now()
	if err := l.setStatus(ctx, b, model.StatusCancelled, now); err != nil {
		return err
	}
	l.releaseHolds(b)
	l.publish(EventCancelled, *b, nil)
	return nil
}

// CancelWithCodes cancels the active booking whose token and PIN both
// match.  A token that resolves to nothing, or a PIN that does not match,
// is reported as ErrNotFound.
func (l *Ledger) CancelWithCodes(ctx context.Context, token, pin string) (*model.Booking, error) {
	tok := NormalizeToken(token)
	pin = strings.TrimSpace(pin)
	if len(tok) != TokenLength || !ValidPIN(pin) {
		return nil, &ValidationError{Field: "token", Reason: "token and pin are required"}
	}
	b, err := l.store.FindActiveByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "find booking by code", Err: err}
	}
	if subtle.ConstantTimeCompare([]byte(b.PIN), []byte(pin)) != 1 {
		return nil, ErrNotFound
	}
	if err := l.CancelBooking(ctx, b.ID); err != nil {
		return nil, err
	}
	return l.Get(ctx, b.ID)
}

// CheckIn moves a Confirmed booking to CheckedIn when the current time is
// within the booked range widened by the grace window.
func (l *Ledger) CheckIn(ctx context.Context, id uint64) (*model.Booking, error) {
	b, unlock, err := l.lockBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if b.Status != model.StatusConfirmed {
		return nil, &TransitionError{ID: id, From: b.Status, To: model.StatusCheckedIn}
	}
	now := l.clock.Now()
	if now.Before(b.StartAt.Add(-l.grace)) || !now.Before(b.EndAt.Add(l.grace)) {
		return nil, ErrOutsideWindow
	}
	if err := l.setStatus(ctx, b, model.StatusCheckedIn, now); err != nil {
		return nil, err
	}
	b.CheckedInAt = &now
	return b, nil
}

// CompleteExpired marks every Confirmed or CheckedIn booking whose range
// plus the grace window has ended as Completed and releases what it held.
// Until then the booking can still check in and its codes still verify.
// It returns the number of bookings completed.
func (l *Ledger) CompleteExpired(ctx context.Context) (int, error) {
	now := l.clock.Now()
	cutoff := now.Add(-l.grace)
	expired, err := l.store.ListExpiredBookings(ctx, cutoff)
	if err != nil {
		return 0, &StoreError{Op: "list expired bookings", Err: err}
	}
	done := 0
	for _, e := range expired {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		ok, err := l.complete(ctx, e.SlotID, e.ID, cutoff, now)
		if err != nil {
			return done, err
		}
		if ok {
			done++
		}
	}
	return done, nil
}

func (l *Ledger) complete(ctx context.Context, slotID, id uint64, cutoff, now time.Time) (bool, error) {
	unlock := l.locks.lock(slotID)
	defer unlock()
	b, err := l.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !b.Status.Active() || b.EndAt.After(cutoff) {
		return false, nil
	}
	if err := l.setStatus(ctx, b, model.StatusCompleted, now); err != nil {
		return false, err
	}
	l.releaseHolds(b)
	return true, nil
}

// Restore rebuilds the inventory and active code sets from the store.  It
// must run before the ledger serves requests.
func (l *Ledger) Restore(ctx context.Context) (int, error) {
	active, err := l.store.ListActiveBookings(ctx)
	if err != nil {
		return 0, &StoreError{Op: "list active bookings", Err: err}
	}
	for _, b := range active {
		h := Handle(b.HoldID)
		if h == "" {
			h = Handle(fmt.Sprintf("booking-%d", b.ID))
		}
		l.inv.Restore(b.SlotID, h, TimeRange{Start: b.StartAt, End: b.EndAt})
		if err := l.codes.Claim(Codes{Token: b.Token, PIN: b.PIN}); err != nil {
			log.Printf("booking: restore booking %d: %v", b.ID, err)
		}
	}
	return len(active), nil
}

// Get loads a booking by id.
func (l *Ledger) Get(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := l.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
		}
		return nil, &StoreError{Op: "get booking", Err: err}
	}
	return b, nil
}

// lockBooking takes the lock of the booking's slot and re-reads the
// booking under it.
func (l *Ledger) lockBooking(ctx context.Context, id uint64) (*model.Booking, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	b, err := l.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	unlock := l.locks.lock(b.SlotID)
	b, err = l.Get(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return b, unlock, nil
}

func (l *Ledger) getSlot(ctx context.Context, id uint64) (*model.Slot, error) {
	s, err := l.catalog.GetSlot(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("slot %d: %w", id, ErrNotFound)
		}
		return nil, &StoreError{Op: "get slot", Err: err}
	}
	return s, nil
}

func (l *Ledger) setStatus(ctx context.Context, b *model.Booking, to model.BookingStatus, at time.Time) error {
	if err := l.store.UpdateBookingStatus(ctx, b.ID, to, at); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("booking %d: %w", b.ID, ErrNotFound)
		}
		return &StoreError{Op: "update booking status", Err: err}
	}
	b.Status = to
	b.UpdatedAt = at
	return nil
}

func (l *Ledger) releaseHolds(b *model.Booking) {
	if b.HoldID != "" {
		l.inv.Release(Handle(b.HoldID))
	} else {
		l.inv.Release(Handle(fmt.Sprintf("booking-%d", b.ID)))
	}
	if b.Token != "" {
		l.codes.Release(Codes{Token: b.Token, PIN: b.PIN})
	}
}

func (l *Ledger) publish(t EventType, b model.Booking, slot *model.Slot) {
	if l.events == nil {
		return
	}
	ev := Event{Type: t, Booking: b, Slot: slot, At: l.clock.Now()}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := l.events.Publish(ctx, ev); err != nil {
			log.Printf("booking: publish %s for booking %d failed: %v", ev.Type, ev.Booking.ID, err)
		}
	}()
}

// slotLocks hands out one mutex per slot id.
type slotLocks struct {
	mu sync.Mutex
	m  map[uint64]*sync.Mutex
}

func (s *slotLocks) lock(id uint64) func() {
	s.mu.Lock()
	m, ok := s.m[id]
	if !ok {
		m = &sync.Mutex{}
		s.m[id] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}
