package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/reserve-my-spot/internal/model"
)

// OrganizationRepo reads and writes the organizations table.
type OrganizationRepo struct{ db *sql.DB }

// NewOrganizationRepo returns an OrganizationRepo bound to db.
func NewOrganizationRepo(db *sql.DB) *OrganizationRepo { return &OrganizationRepo{db: db} }

const orgColumns = `id, name, org_type, COALESCE(description, ''), total_slots_2w, total_slots_4w,
	address, city, state, zip_code, contact_person, contact_phone, email, password_hash,
	plate_pattern, created_at`

func scanOrganization(row interface{ Scan(...any) error }) (*model.Organization, error) {
	var o model.Organization
	err := row.Scan(&o.ID, &o.Name, &o.OrgType, &o.Description, &o.TotalSlots2W, &o.TotalSlots4W,
		&o.Address, &o.City, &o.State, &o.ZipCode, &o.ContactPerson, &o.ContactPhone, &o.Email,
		&o.PasswordHash, &o.PlatePattern, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrganization inserts o and sets its ID.  The email is stored
// lowercased; PasswordHash must already be a bcrypt hash.
func (r *OrganizationRepo) CreateOrganization(ctx context.Context, o *model.Organization) error {
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))
	const q = `INSERT INTO organizations (name, org_type, description, total_slots_2w, total_slots_4w,
		address, city, state, zip_code, contact_person, contact_phone, email, password_hash, plate_pattern)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, o.Name, o.OrgType, o.Description, o.TotalSlots2W, o.TotalSlots4W,
		o.Address, o.City, o.State, o.ZipCode, o.ContactPerson, o.ContactPhone, o.Email, o.PasswordHash, o.PlatePattern)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// GetOrganization fetches an organization by id.
func (r *OrganizationRepo) GetOrganization(ctx context.Context, id uint64) (*model.Organization, error) {
	o, err := scanOrganization(r.db.QueryRowContext(ctx,
		"SELECT "+orgColumns+" FROM organizations WHERE id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// GetOrganizationByEmail fetches an organization by normalized email.
func (r *OrganizationRepo) GetOrganizationByEmail(ctx context.Context, email string) (*model.Organization, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	o, err := scanOrganization(r.db.QueryRowContext(ctx,
		"SELECT "+orgColumns+" FROM organizations WHERE email = ? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// ListOrganizations returns every organization ordered by id.
func (r *OrganizationRepo) ListOrganizations(ctx context.Context) ([]model.Organization, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+orgColumns+" FROM organizations ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
