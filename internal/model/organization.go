package model

import "time"

// Organization is a parking operator that owns one or more slots.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – display name shown next to its slots.
//  OrgType       – free-form category (mall, office, hospital, ...).
//  Description   – optional text.
//  TotalSlots2W  – declared two-wheeler spaces.
//  TotalSlots4W  – declared four-wheeler spaces.
//  Address, City, State, ZipCode – postal location.
//  ContactPerson – operator contact name.
//  ContactPhone  – operator contact phone.
//  Email         – unique login email.
//  PasswordHash  – bcrypt hash of the login password.
//  PlatePattern  – optional regular expression vehicle plates must match;
//                  empty means the service default.
//  CreatedAt     – creation timestamp.
type Organization struct {
	ID            uint64    // organizations.id
	Name          string    // organizations.name
	OrgType       string    // organizations.org_type
	Description   string    // organizations.description
	TotalSlots2W  int       // organizations.total_slots_2w
	TotalSlots4W  int       // organizations.total_slots_4w
	Address       string    // organizations.address
	City          string    // organizations.city
	State         string    // organizations.state
	ZipCode       string    // organizations.zip_code
	ContactPerson string    // organizations.contact_person
	ContactPhone  string    // organizations.contact_phone
	Email         string    // organizations.email
	PasswordHash  string    // organizations.password_hash
	PlatePattern  string    // organizations.plate_pattern
	CreatedAt     time.Time // organizations.created_at
}

// TotalSlots is the sum of declared two- and four-wheeler spaces.
func (o Organization) TotalSlots() int { return o.TotalSlots2W + o.TotalSlots4W }

// DashboardStats summarises an organization's current activity.
type DashboardStats struct {
	OrganizationName string `json:"org_name"`
	TotalSlots       int    `json:"total_slots"`
	ActiveBookings   int    `json:"active_bookings"`
	AvailableSlots   int    `json:"available_slots"`
	MonthlyRevenue   string `json:"monthly_revenue"`
}
