package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/reserve-my-spot/internal/model"
)

// BookingRepo persists bookings in MySQL.  Uniqueness of active tokens and
// PINs is enforced by unique indexes on generated columns that are NULL
// once a booking leaves the active set.
type BookingRepo struct{ db *sql.DB }

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.slot_id, b.hold_id, b.customer_name, b.phone_number, b.email, b.vehicle_type,
	b.vehicle_number, b.vehicle_brand, b.start_datetime, b.end_datetime, b.total_cost, b.status,
	b.token, b.pin, b.checked_in_at, b.created_at, b.updated_at`

const activeStatuses = `('CONFIRMED', 'CHECKED_IN')`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var (
		b         model.Booking
		checkedIn sql.NullTime
	)
	err := row.Scan(&b.ID, &b.SlotID, &b.HoldID, &b.CustomerName, &b.Phone, &b.Email, &b.VehicleType,
		&b.VehicleNumber, &b.VehicleBrand, &b.StartAt, &b.EndAt, &b.TotalCost, &b.Status,
		&b.Token, &b.PIN, &checkedIn, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if checkedIn.Valid {
		t := checkedIn.Time
		b.CheckedInAt = &t
	}
	return &b, nil
}

func (r *BookingRepo) one(ctx context.Context, q string, args ...any) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *BookingRepo) many(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CreateBooking inserts b and sets its ID.  ErrDuplicate means the token
// or PIN is held by another active booking.
func (r *BookingRepo) CreateBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (slot_id, hold_id, customer_name, phone_number, email, vehicle_type,
		vehicle_number, vehicle_brand, start_datetime, end_datetime, total_cost, status, token, pin,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.SlotID, b.HoldID, b.CustomerName, b.Phone, b.Email,
		string(b.VehicleType), b.VehicleNumber, b.VehicleBrand, b.StartAt.UTC(), b.EndAt.UTC(), b.TotalCost,
		string(b.Status), b.Token, b.PIN, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetBooking fetches a booking by id.
func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return r.one(ctx, "SELECT "+bookingColumns+" FROM bookings b WHERE b.id = ?", id)
}

// UpdateBookingStatus sets the status and, for check-ins, checked_in_at.
func (r *BookingRepo) UpdateBookingStatus(ctx context.Context, id uint64, status model.BookingStatus, at time.Time) error {
	q := "UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?"
	args := []any{string(status), at.UTC(), id}
	if status == model.StatusCheckedIn {
		q = "UPDATE bookings SET status = ?, updated_at = ?, checked_in_at = ? WHERE id = ?"
		args = []any{string(status), at.UTC(), at.UTC(), id}
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindActiveByToken returns the active booking holding token.
func (r *BookingRepo) FindActiveByToken(ctx context.Context, token string) (*model.Booking, error) {
	return r.one(ctx, "SELECT "+bookingColumns+" FROM bookings b WHERE b.active_token = ?", token)
}

// FindActiveByPIN returns the active booking holding pin.
func (r *BookingRepo) FindActiveByPIN(ctx context.Context, pin string) (*model.Booking, error) {
	return r.one(ctx, "SELECT "+bookingColumns+" FROM bookings b WHERE b.active_pin = ?", pin)
}

// ListActiveBookings returns every Confirmed or CheckedIn booking.
func (r *BookingRepo) ListActiveBookings(ctx context.Context) ([]model.Booking, error) {
	return r.many(ctx, "SELECT "+bookingColumns+" FROM bookings b WHERE b.status IN "+activeStatuses+" ORDER BY b.id")
}

// ListExpiredBookings returns active bookings whose range ended at or
// before endedBy.
func (r *BookingRepo) ListExpiredBookings(ctx context.Context, endedBy time.Time) ([]model.Booking, error) {
	return r.many(ctx, "SELECT "+bookingColumns+" FROM bookings b WHERE b.status IN "+activeStatuses+
		" AND b.end_datetime <= ? ORDER BY b.end_datetime", endedBy.UTC())
}

// ListBookingsByOrganization returns the bookings on any slot of orgID,
// newest first.
func (r *BookingRepo) ListBookingsByOrganization(ctx context.Context, orgID uint64) ([]model.Booking, error) {
	return r.many(ctx, "SELECT "+bookingColumns+` FROM bookings b
		JOIN parking_slots s ON s.id = b.slot_id
		WHERE s.organization_id = ? ORDER BY b.start_datetime DESC, b.id DESC`, orgID)
}

// ListBookings returns the most recent bookings across all organizations.
func (r *BookingRepo) ListBookings(ctx context.Context, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.many(ctx, "SELECT "+bookingColumns+" FROM bookings b ORDER BY b.id DESC LIMIT ?", limit)
}

// CountActiveBookings counts active bookings of orgID that have not ended
// by now.
func (r *BookingRepo) CountActiveBookings(ctx context.Context, orgID uint64, now time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings b JOIN parking_slots s ON s.id = b.slot_id
		WHERE s.organization_id = ? AND b.status IN ` + activeStatuses + ` AND b.end_datetime >= ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, orgID, now.UTC()).Scan(&n)
	return n, err
}

// RevenueBetween sums the cost of non-cancelled bookings of orgID that
// start in [from, to).
func (r *BookingRepo) RevenueBetween(ctx context.Context, orgID uint64, from, to time.Time) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(b.total_cost), 0) FROM bookings b JOIN parking_slots s ON s.id = b.slot_id
		WHERE s.organization_id = ? AND b.status <> 'CANCELLED' AND b.start_datetime >= ? AND b.start_datetime < ?`
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx, q, orgID, from.UTC(), to.UTC()).Scan(&sum)
	return sum, err
}
