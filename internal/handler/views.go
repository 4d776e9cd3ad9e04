package handler

import (
	"time"

	"github.com/iliyamo/reserve-my-spot/internal/model"
)

// defaultFeatures are shown for slots whose owner listed none.
var defaultFeatures = []string{"Secure", "24/7"}

// SlotView is a slot as exposed over HTTP.
type SlotView struct {
	ID                  uint64   `json:"id"`
	OrganizationID      uint64   `json:"organization_id"`
	OrganizationName    string   `json:"organization_name"`
	OrganizationAddress string   `json:"organization_address"`
	OrganizationCity    string   `json:"organization_city"`
	Name                string   `json:"name"`
	SlotType            string   `json:"slot_type"`
	TotalSlots          int      `json:"total_slots"`
	AvailableSlots      int      `json:"available_slots"`
	Price               string   `json:"price"`
	Features            []string `json:"features"`
	Location            string   `json:"location"`
	Distance            string   `json:"distance"`
	Address             string   `json:"address"`
	IsActive            bool     `json:"is_active"`
}

func slotView(s model.Slot, available int) SlotView {
	features := s.Features
	if len(features) == 0 {
		features = defaultFeatures
	}
	return SlotView{
		ID:                  s.ID,
		OrganizationID:      s.OrganizationID,
		OrganizationName:    s.OrganizationName,
		OrganizationAddress: s.OrganizationAddress,
		OrganizationCity:    s.OrganizationCity,
		Name:                s.Name,
		SlotType:            string(s.VehicleType),
		TotalSlots:          s.TotalCapacity,
		AvailableSlots:      available,
		Price:               s.HourlyRate.StringFixed(2),
		Features:            features,
		Location:            s.Location,
		Distance:            s.Distance,
		Address:             s.Address,
		IsActive:            s.IsActive,
	}
}

// BookingView is a booking without its access codes.
type BookingView struct {
	ID            uint64     `json:"id"`
	Slot          uint64     `json:"slot"`
	CustomerName  string     `json:"customer_name"`
	PhoneNumber   string     `json:"phone_number"`
	Email         string     `json:"email,omitempty"`
	VehicleType   string     `json:"vehicle_type"`
	VehicleNumber string     `json:"vehicle_number"`
	VehicleBrand  string     `json:"vehicle_brand,omitempty"`
	StartDatetime time.Time  `json:"start_datetime"`
	EndDatetime   time.Time  `json:"end_datetime"`
	TotalCost     string     `json:"total_cost"`
	Status        string     `json:"status"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func bookingView(b model.Booking, loc *time.Location) BookingView {
	v := BookingView{
		ID:            b.ID,
		Slot:          b.SlotID,
		CustomerName:  b.CustomerName,
		PhoneNumber:   b.Phone,
		Email:         b.Email,
		VehicleType:   string(b.VehicleType),
		VehicleNumber: b.VehicleNumber,
		VehicleBrand:  b.VehicleBrand,
		StartDatetime: b.StartAt.In(loc),
		EndDatetime:   b.EndAt.In(loc),
		TotalCost:     b.TotalCost.StringFixed(2),
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt.In(loc),
	}
	if b.CheckedInAt != nil {
		t := b.CheckedInAt.In(loc)
		v.CheckedInAt = &t
	}
	return v
}

func bookingViews(bs []model.Booking, loc *time.Location) []BookingView {
	out := make([]BookingView, 0, len(bs))
	for _, b := range bs {
		out = append(out, bookingView(b, loc))
	}
	return out
}

// OrganizationView omits credentials.
type OrganizationView struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	OrgType       string    `json:"org_type"`
	Description   string    `json:"description,omitempty"`
	TotalSlots2W  int       `json:"total_slots_2w"`
	TotalSlots4W  int       `json:"total_slots_4w"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	ZipCode       string    `json:"zip_code"`
	ContactPerson string    `json:"contact_person"`
	ContactPhone  string    `json:"contact_phone"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
}

func organizationView(o model.Organization) OrganizationView {
	return OrganizationView{
		ID:            o.ID,
		Name:          o.Name,
		OrgType:       o.OrgType,
		Description:   o.Description,
		TotalSlots2W:  o.TotalSlots2W,
		TotalSlots4W:  o.TotalSlots4W,
		Address:       o.Address,
		City:          o.City,
		State:         o.State,
		ZipCode:       o.ZipCode,
		ContactPerson: o.ContactPerson,
		ContactPhone:  o.ContactPhone,
		Email:         o.Email,
		CreatedAt:     o.CreatedAt,
	}
}
