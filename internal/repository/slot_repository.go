package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/reserve-my-spot/internal/model"
)

// SlotRepo reads and writes parking_slots.  Reads join the owning
// organization so callers get its display fields and plate format.
type SlotRepo struct{ db *sql.DB }

// NewSlotRepo returns a SlotRepo bound to db.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotSelect = `SELECT s.id, s.organization_id, s.name, s.slot_type, s.total_slots, s.price,
	s.features, s.location, s.distance, s.address, s.is_active, s.created_at, s.updated_at,
	o.name, o.address, o.city, o.plate_pattern
	FROM parking_slots s JOIN organizations o ON o.id = s.organization_id`

func scanSlot(row interface{ Scan(...any) error }) (*model.Slot, error) {
	var (
		s        model.Slot
		features []byte
	)
	err := row.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.VehicleType, &s.TotalCapacity, &s.HourlyRate,
		&features, &s.Location, &s.Distance, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		&s.OrganizationName, &s.OrganizationAddress, &s.OrganizationCity, &s.PlatePattern)
	if err != nil {
		return nil, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &s.Features); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func encodeFeatures(f []string) ([]byte, error) {
	if f == nil {
		f = []string{}
	}
	return json.Marshal(f)
}

// GetSlot fetches a slot by id, disabled or not.
func (r *SlotRepo) GetSlot(ctx context.Context, id uint64) (*model.Slot, error) {
	s, err := scanSlot(r.db.QueryRowContext(ctx, slotSelect+" WHERE s.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// ListActiveSlots returns every slot still accepting bookings.
func (r *SlotRepo) ListActiveSlots(ctx context.Context) ([]model.Slot, error) {
	return r.list(ctx, slotSelect+" WHERE s.is_active = 1 ORDER BY s.id")
}

// ListSlotsByOrganization returns all slots of one organization,
// including disabled ones.
func (r *SlotRepo) ListSlotsByOrganization(ctx context.Context, orgID uint64) ([]model.Slot, error) {
	return r.list(ctx, slotSelect+" WHERE s.organization_id = ? ORDER BY s.id", orgID)
}

func (r *SlotRepo) list(ctx context.Context, q string, args ...any) ([]model.Slot, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// CreateSlot inserts s and sets its ID.  The organization must exist.
func (r *SlotRepo) CreateSlot(ctx context.Context, s *model.Slot) error {
	features, err := encodeFeatures(s.Features)
	if err != nil {
		return err
	}
	const q = `INSERT INTO parking_slots (organization_id, name, slot_type, total_slots, price, features,
		location, distance, address, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.OrganizationID, s.Name, string(s.VehicleType), s.TotalCapacity,
		s.HourlyRate, features, s.Location, s.Distance, s.Address, s.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// UpdateSlot applies u to slot id on behalf of orgID.  The row is locked
// while ownership is checked.  It returns ErrNotFound for an unknown slot
// and ErrForbidden when the slot belongs to another organization.
func (r *SlotRepo) UpdateSlot(ctx context.Context, orgID, id uint64, u model.SlotUpdate) (*model.Slot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var owner uint64
	err = tx.QueryRowContext(ctx, "SELECT organization_id FROM parking_slots WHERE id = ? FOR UPDATE", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if owner != orgID {
		return nil, ErrForbidden
	}
	if u.TotalCapacity != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE parking_slots SET total_slots = ? WHERE id = ?", *u.TotalCapacity, id); err != nil {
			return nil, err
		}
	}
	if u.HourlyRate != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE parking_slots SET price = ? WHERE id = ?", *u.HourlyRate, id); err != nil {
			return nil, err
		}
	}
	if u.Features != nil {
		features, err := encodeFeatures(u.Features)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE parking_slots SET features = ? WHERE id = ?", features, id); err != nil {
			return nil, err
		}
	}
	if u.IsActive != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE parking_slots SET is_active = ? WHERE id = ?", *u.IsActive, id); err != nil {
			return nil, err
		}
	}
	s, err := scanSlot(tx.QueryRowContext(ctx, slotSelect+" WHERE s.id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return s, nil
}
