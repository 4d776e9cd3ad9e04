// Package seed loads organizations and parking slots from a YAML catalog
// at startup.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/reserve-my-spot/internal/booking"
	"github.com/iliyamo/reserve-my-spot/internal/model"
	"github.com/iliyamo/reserve-my-spot/internal/repository"
	"github.com/iliyamo/reserve-my-spot/internal/utils"
)

// Catalog is the root of a seed file.
type Catalog struct {
	Organizations []Organization `yaml:"organizations"`
}

// Organization is one seeded operator and its slots.
type Organization struct {
	Name          string `yaml:"name"`
	OrgType       string `yaml:"org_type"`
	Description   string `yaml:"description"`
	Address       string `yaml:"address"`
	City          string `yaml:"city"`
	State         string `yaml:"state"`
	ZipCode       string `yaml:"zip_code"`
	ContactPerson string `yaml:"contact_person"`
	ContactPhone  string `yaml:"contact_phone"`
	Email         string `yaml:"email"`
	Password      string `yaml:"password"`
	PlatePattern  string `yaml:"plate_pattern"`
	Slots         []Slot `yaml:"slots"`
}

// Slot is one seeded parking slot.
type Slot struct {
	Name          string   `yaml:"name"`
	VehicleType   string   `yaml:"vehicle_type"`
	TotalCapacity int      `yaml:"total_capacity"`
	HourlyRate    string   `yaml:"hourly_rate"`
	Features      []string `yaml:"features"`
	Location      string   `yaml:"location"`
	Distance      string   `yaml:"distance"`
	Address       string   `yaml:"address"`
	Inactive      bool     `yaml:"inactive"`
}

// Store is the persistence needed to apply a catalog.
type Store interface {
	CreateOrganization(ctx context.Context, o *model.Organization) error
	CreateSlot(ctx context.Context, s *model.Slot) error
}

// Result counts what Apply created.
type Result struct {
	Organizations int
	Slots         int
	Skipped       int
}

// LoadFile reads and parses a seed file.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog and rejects unknown fields.
func Parse(raw []byte) (*Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &cat, nil
}

// Apply creates every organization and its slots.  Organizations whose
// email already exists are skipped together with their slots, so applying
// the same catalog twice is harmless.
func Apply(ctx context.Context, store Store, cat *Catalog, bcryptCost int) (Result, error) {
	var res Result
	for i, so := range cat.Organizations {
		org, err := so.model(bcryptCost)
		if err != nil {
			return res, fmt.Errorf("organization %d (%s): %w", i, so.Email, err)
		}
		slots := make([]model.Slot, 0, len(so.Slots))
		for j, ss := range so.Slots {
			s, err := ss.model()
			if err != nil {
				return res, fmt.Errorf("organization %s slot %d: %w", so.Email, j, err)
			}
			slots = append(slots, s)
		}

		if err := store.CreateOrganization(ctx, org); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				res.Skipped++
				continue
			}
			return res, err
		}
		res.Organizations++
		for k := range slots {
			slots[k].OrganizationID = org.ID
			if err := store.CreateSlot(ctx, &slots[k]); err != nil {
				return res, fmt.Errorf("create slot %q: %w", slots[k].Name, err)
			}
			res.Slots++
		}
	}
	log.Printf("seed: %d organizations, %d slots created, %d organizations already present",
		res.Organizations, res.Slots, res.Skipped)
	return res, nil
}

func (so Organization) model(cost int) (*model.Organization, error) {
	if strings.TrimSpace(so.Name) == "" || strings.TrimSpace(so.Email) == "" {
		return nil, errors.New("name and email are required")
	}
	pattern := so.PlatePattern
	if pattern != "" {
		if _, err := booking.CompilePlatePattern(pattern); err != nil {
			return nil, fmt.Errorf("plate_pattern: %w", err)
		}
		pattern = booking.AnchorPlatePattern(pattern)
	}
	hash, err := utils.HashPassword(so.Password, cost)
	if err != nil {
		return nil, err
	}
	o := &model.Organization{
		Name:          so.Name,
		OrgType:       so.OrgType,
		Description:   so.Description,
		Address:       so.Address,
		City:          so.City,
		State:         so.State,
		ZipCode:       so.ZipCode,
		ContactPerson: so.ContactPerson,
		ContactPhone:  so.ContactPhone,
		Email:         strings.ToLower(strings.TrimSpace(so.Email)),
		PasswordHash:  hash,
		PlatePattern:  pattern,
	}
	for _, s := range so.Slots {
		vt, _ := model.ParseVehicleType(s.VehicleType)
		switch vt {
		case model.TwoWheeler:
			o.TotalSlots2W += s.TotalCapacity
		case model.FourWheeler:
			o.TotalSlots4W += s.TotalCapacity
		}
	}
	return o, nil
}

func (ss Slot) model() (model.Slot, error) {
	vt, ok := model.ParseVehicleType(ss.VehicleType)
	if !ok {
		return model.Slot{}, fmt.Errorf("unknown vehicle_type %q", ss.VehicleType)
	}
	if ss.TotalCapacity < 1 {
		return model.Slot{}, errors.New("total_capacity must be at least 1")
	}
	rate, err := decimal.NewFromString(ss.HourlyRate)
	if err != nil {
		return model.Slot{}, fmt.Errorf("hourly_rate: %w", err)
	}
	if rate.IsNegative() {
		return model.Slot{}, errors.New("hourly_rate must not be negative")
	}
	return model.Slot{
		Name:          ss.Name,
		VehicleType:   vt,
		TotalCapacity: ss.TotalCapacity,
		HourlyRate:    rate,
		Features:      ss.Features,
		Location:      ss.Location,
		Distance:      ss.Distance,
		Address:       ss.Address,
		IsActive:      !ss.Inactive,
	}, nil
}
