package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/reserve-my-spot/internal/model"
	"github.com/iliyamo/reserve-my-spot/internal/repository"
)

// Handle identifies one reserved unit of slot capacity.
type Handle string

// Availability is the outcome of an admission check.
type Availability struct {
	Admit    bool
	Capacity int
	InUse    int
}

// Free is the number of units still admissible for the checked range.
func (a Availability) Free() int {
	if a.InUse >= a.Capacity {
		return 0
	}
	return a.Capacity - a.InUse
}

// Inventory tracks the intervals held against each slot and decides
// admission.  Reserve is serialized per slot; reads only take the slot's
// read lock.
type Inventory struct {
	catalog SlotCatalog

	mu     sync.Mutex
	slots  map[uint64]*slotHolds
	owners map[Handle]uint64
}

type slotHolds struct {
	admit sync.Mutex

	mu    sync.RWMutex
	holds map[Handle]TimeRange
}

// NewInventory returns an empty inventory reading capacities from catalog.
func NewInventory(catalog SlotCatalog) *Inventory {
	return &Inventory{
		catalog: catalog,
		slots:   make(map[uint64]*slotHolds),
		owners:  make(map[Handle]uint64),
	}
}

func (inv *Inventory) slot(id uint64) *slotHolds {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	sh, ok := inv.slots[id]
	if !ok {
		sh = &slotHolds{holds: make(map[Handle]TimeRange)}
		inv.slots[id] = sh
	}
	return sh
}

// CheckAvailability counts holds overlapping r.  Every overlapping hold
// counts, not the peak in use at one instant, so back-to-back holds both
// count against a range spanning them.  The answer is advisory: only
// Reserve admits.
func (inv *Inventory) CheckAvailability(ctx context.Context, slotID uint64, r TimeRange) (Availability, error) {
	s, err := inv.lookup(ctx, slotID)
	if err != nil {
		return Availability{}, err
	}
	inUse := inv.slot(slotID).overlapping(r)
	return Availability{Admit: s.IsActive && inUse < s.TotalCapacity, Capacity: s.TotalCapacity, InUse: inUse}, nil
}

// Reserve re-checks capacity and registers r under a new handle.
func (inv *Inventory) Reserve(ctx context.Context, slotID uint64, r TimeRange) (Handle, error) {
	sh := inv.slot(slotID)
	sh.admit.Lock()
	defer sh.admit.Unlock()

	s, err := inv.lookup(ctx, slotID)
	if err != nil {
		return "", err
	}
	if !s.IsActive {
		return "", ErrSlotUnavailable
	}
	if sh.overlapping(r) >= s.TotalCapacity {
		return "", ErrSlotFull
	}
	h := Handle(uuid.NewString())
	inv.hold(slotID, sh, h, r)
	return h, nil
}

// Restore registers an interval that was admitted earlier, typically when
// rebuilding state from the store at startup.  Capacity is not checked.
func (inv *Inventory) Restore(slotID uint64, h Handle, r TimeRange) {
	inv.hold(slotID, inv.slot(slotID), h, r)
}

// Release drops the interval held by h.  Unknown handles are ignored.
func (inv *Inventory) Release(h Handle) {
	inv.mu.Lock()
	slotID, ok := inv.owners[h]
	delete(inv.owners, h)
	sh := inv.slots[slotID]
	inv.mu.Unlock()
	if !ok || sh == nil {
		return
	}
	sh.mu.Lock()
	delete(sh.holds, h)
	sh.mu.Unlock()
}

// Available is the number of units of s free at instant at.
func (inv *Inventory) Available(s model.Slot, at time.Time) int {
	inv.mu.Lock()
	sh, ok := inv.slots[s.ID]
	inv.mu.Unlock()
	used := 0
	if ok {
		sh.mu.RLock()
		for _, r := range sh.holds {
			if r.Contains(at) {
				used++
			}
		}
		sh.mu.RUnlock()
	}
	if used >= s.TotalCapacity {
		return 0
	}
	return s.TotalCapacity - used
}

// held is the number of intervals currently held against slotID.
func (inv *Inventory) held(slotID uint64) int {
	sh := inv.slot(slotID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.holds)
}

func (inv *Inventory) hold(slotID uint64, sh *slotHolds, h Handle, r TimeRange) {
	sh.mu.Lock()
	sh.holds[h] = r
	sh.mu.Unlock()
	inv.mu.Lock()
	inv.owners[h] = slotID
	inv.mu.Unlock()
}

func (inv *Inventory) lookup(ctx context.Context, slotID uint64) (*model.Slot, error) {
	s, err := inv.catalog.GetSlot(ctx, slotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "get slot", Err: err}
	}
	return s, nil
}

func (sh *slotHolds) overlapping(r TimeRange) int {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	n := 0
	for _, held := range sh.holds {
		if held.Overlaps(r) {
			n++
		}
	}
	return n
}
