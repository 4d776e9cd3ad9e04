package booking

import (
	"log"
	"net/mail"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/reserve-my-spot/internal/model"
)

// DefaultPlatePattern accepts Indian-style registrations such as KA01AB1234
// once spaces and dashes are removed.
var DefaultPlatePattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{1,2}[A-Z]{0,3}[0-9]{1,4}$`)

// AnchorPlatePattern wraps p so that it must match the whole normalized
// plate rather than any substring of it.
func AnchorPlatePattern(p string) string {
	return "^(?:" + p + ")$"
}

// CompilePlatePattern compiles the anchored form of p.
func CompilePlatePattern(p string) (*regexp.Regexp, error) {
	return regexp.Compile(AnchorPlatePattern(p))
}

// CreateBookingRequest carries one booking submission.
type CreateBookingRequest struct {
	SlotID        uint64
	CustomerName  string
	Phone         string
	Email         string
	VehicleType   string
	VehicleNumber string
	VehicleBrand  string
	Start         time.Time
	End           time.Time
}

// NormalizePlate uppercases a registration number and drops separators.
func NormalizePlate(s string) string {
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, s)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// buildBooking validates req against the slot it targets and returns the
// unsaved booking.
func buildBooking(req CreateBookingRequest, slot *model.Slot, platePattern *regexp.Regexp) (*model.Booking, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, &ValidationError{Field: "customerName", Reason: "is required"}
	}
	phone := strings.TrimSpace(req.Phone)
	if countDigits(phone) < 10 {
		return nil, &ValidationError{Field: "phoneNumber", Reason: "must contain at least 10 digits"}
	}
	email := strings.TrimSpace(req.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, &ValidationError{Field: "email", Reason: "is not a valid address"}
		}
	}
	vt, ok := model.ParseVehicleType(req.VehicleType)
	if !ok {
		return nil, &ValidationError{Field: "vehicleType", Reason: "must be 2W or 4W"}
	}
	if vt != slot.VehicleType {
		return nil, &ValidationError{Field: "vehicleType", Reason: "slot accepts " + string(slot.VehicleType) + " vehicles only"}
	}
	plate := NormalizePlate(req.VehicleNumber)
	if plate == "" {
		return nil, &ValidationError{Field: "vehicleNumber", Reason: "is required"}
	}
	if !platePattern.MatchString(plate) {
		return nil, &ValidationError{Field: "vehicleNumber", Reason: "does not match the expected registration format"}
	}
	return &model.Booking{
		SlotID:        slot.ID,
		CustomerName:  name,
		Phone:         phone,
		Email:         email,
		VehicleType:   vt,
		VehicleNumber: plate,
		VehicleBrand:  strings.TrimSpace(req.VehicleBrand),
	}, nil
}

// plateCache holds compiled organization plate patterns keyed by their
// source.  A nil entry records a pattern that did not compile.
type plateCache struct {
	mu sync.Mutex
	m  map[string]*regexp.Regexp
}

func (pc *plateCache) get(p string) *regexp.Regexp {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if re, ok := pc.m[p]; ok {
		return re
	}
	if pc.m == nil {
		pc.m = make(map[string]*regexp.Regexp)
	}
	re, err := CompilePlatePattern(p)
	if err != nil {
		log.Printf("booking: plate pattern %q does not compile, using the default: %v", p, err)
	}
	pc.m[p] = re
	return re
}

func (pc *plateCache) len() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return len(pc.m)
}
