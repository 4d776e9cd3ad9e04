package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VehicleType identifies which kind of vehicle a slot accepts.
type VehicleType string

const (
	TwoWheeler  VehicleType = "2W"
	FourWheeler VehicleType = "4W"
)

// ParseVehicleType accepts the short codes as well as the spelled-out
// forms sent by the booking form ("two wheeler", "car", "bike").
func ParseVehicleType(s string) (VehicleType, bool) {
	switch normalizeWord(s) {
	case "2W", "TWOWHEELER", "BIKE", "SCOOTER", "MOTORCYCLE":
		return TwoWheeler, true
	case "4W", "FOURWHEELER", "CAR":
		return FourWheeler, true
	}
	return "", false
}

func normalizeWord(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'a' && ch <= 'z':
			out = append(out, ch-'a'+'A')
		case ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			out = append(out, ch)
		}
	}
	return string(out)
}

// Slot is a group of interchangeable parking spaces sharing one capacity
// and one hourly rate.  The organization summary fields are filled by
// joins and are read-only.
//
// Fields:
//  ID             – primary key identifier.
//  OrganizationID – owning organization.
//  Name           – display name.
//  VehicleType    – 2W or 4W.
//  TotalCapacity  – number of physical spaces.
//  HourlyRate     – price per hour, two decimal places.
//  Features       – marketing tags ("Covered", "EV charging").
//  Location       – area label (downtown, mall).
//  Distance       – free-form distance hint ("0.5 km").
//  Address        – street address of the slot, if it differs from the org.
//  IsActive       – false once the owner disabled the slot.
type Slot struct {
	ID             uint64          // parking_slots.id
	OrganizationID uint64          // parking_slots.organization_id
	Name           string          // parking_slots.name
	VehicleType    VehicleType     // parking_slots.slot_type
	TotalCapacity  int             // parking_slots.total_slots
	HourlyRate     decimal.Decimal // parking_slots.price
	Features       []string        // parking_slots.features (JSON)
	Location       string          // parking_slots.location
	Distance       string          // parking_slots.distance
	Address        string          // parking_slots.address
	IsActive       bool            // parking_slots.is_active
	CreatedAt      time.Time       // parking_slots.created_at
	UpdatedAt      time.Time       // parking_slots.updated_at

	OrganizationName    string // organizations.name
	OrganizationAddress string // organizations.address
	OrganizationCity    string // organizations.city
	PlatePattern        string // organizations.plate_pattern
}
