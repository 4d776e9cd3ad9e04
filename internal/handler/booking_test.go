package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestCreateBooking(t *testing.T) {
	s := newServer(t)
	resp := s.book(t)

	if resp.TotalCost != "100.00" {
		t.Fatalf("total_cost = %s, want 100.00 (client total ignored)", resp.TotalCost)
	}
	if resp.Status != "CONFIRMED" || len(resp.Token) != 9 || len(resp.PIN) != 4 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Booking.VehicleNumber != "MH12AB1234" {
		t.Fatalf("vehicle_number = %q, want MH12AB1234", resp.Booking.VehicleNumber)
	}
}

func TestCreateBookingSlotFull(t *testing.T) {
	s := newServer(t)
	s.book(t)

	rec := s.do(t, http.MethodPost, "/api/bookings/", s.bookingForm())
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if got := decode[map[string]any](t, rec)["reason"]; got != "slot_full" {
		t.Fatalf("reason = %v, want slot_full", got)
	}
}

func TestCreateBookingRejections(t *testing.T) {
	tests := []struct {
		name       string
		edit       func(map[string]any)
		wantStatus int
		wantField  string
	}{
		{"missing name", func(f map[string]any) { f["customerName"] = "" }, http.StatusBadRequest, "customerName"},
		{"short phone", func(f map[string]any) { f["phoneNumber"] = "12345" }, http.StatusBadRequest, "phoneNumber"},
		{"bad email", func(f map[string]any) { f["email"] = "nope" }, http.StatusBadRequest, "email"},
		{"wrong vehicle", func(f map[string]any) { f["vehicleType"] = "2W" }, http.StatusBadRequest, "vehicleType"},
		{"bad plate", func(f map[string]any) { f["vehicleNumber"] = "12-XYZ" }, http.StatusBadRequest, "vehicleNumber"},
		{"bad date", func(f map[string]any) { f["startDate"] = "01/01/2030" }, http.StatusBadRequest, "startDate"},
		{"end before start", func(f map[string]any) { f["endTime"] = "09:00" }, http.StatusBadRequest, ""},
		{"unknown slot", func(f map[string]any) { f["slot"] = 999 }, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)
			form := s.bookingForm()
			tt.edit(form)
			rec := s.do(t, http.MethodPost, "/api/bookings/", form)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantField != "" {
				if got := decode[map[string]any](t, rec)["field"]; got != tt.wantField {
					t.Fatalf("field = %v, want %s", got, tt.wantField)
				}
			}
		})
	}
}

func TestCancelWithCodesFreesCapacity(t *testing.T) {
	s := newServer(t)
	resp := s.book(t)

	wrongPIN := "0000"
	if resp.PIN == wrongPIN {
		wrongPIN = "0001"
	}
	rec := s.do(t, http.MethodPost, "/api/bookings/cancel/", map[string]string{"token": resp.Token, "pin": wrongPIN})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("wrong pin status = %d, want 404", rec.Code)
	}
	rec = s.do(t, http.MethodPost, "/api/bookings/cancel/", map[string]string{"token": resp.Token, "pin": resp.PIN})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cancel status = %d, want 204 (%s)", rec.Code, rec.Body.String())
	}
	s.book(t)
}

func TestVerify(t *testing.T) {
	s := newServer(t)
	resp := s.book(t)

	rec := s.do(t, http.MethodPost, "/api/verify/", map[string]string{"method": "pin", "value": resp.PIN})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	got := decode[verifyResp](t, rec)
	if !got.Valid || got.Booking.ID != resp.ID {
		t.Fatalf("verify = %+v", got)
	}
	if want := time.Date(2030, 1, 1, 12, 15, 0, 0, time.UTC); !got.ValidUntil.Equal(want) {
		t.Fatalf("valid_until = %v, want %v", got.ValidUntil, want)
	}

	s.clock.Set(time.Date(2030, 1, 1, 12, 15, 0, 0, time.UTC))
	got = decode[verifyResp](t, s.do(t, http.MethodPost, "/api/verify/", map[string]string{"method": "token", "value": resp.Token}))
	if got.Valid {
		t.Fatalf("valid after grace window")
	}

	tests := []struct {
		body map[string]string
		want int
	}{
		{map[string]string{"method": "pin", "value": "12a4"}, http.StatusBadRequest},
		{map[string]string{"method": "face", "value": "x"}, http.StatusBadRequest},
		{map[string]string{"method": "token", "value": "ZZZZZ9999"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := s.do(t, http.MethodPost, "/api/verify/", tt.body); rec.Code != tt.want {
			t.Fatalf("verify %v status = %d, want %d", tt.body, rec.Code, tt.want)
		}
	}
}

func TestQR(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, "/api/bookings/qr?token=abcde1234&pin=0042", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("body is not a PNG")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
	if rec := s.do(t, http.MethodGet, "/api/bookings/qr?token=abc&pin=0042", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("short token status = %d, want 400", rec.Code)
	}
}

func TestListSlotsShowsAvailability(t *testing.T) {
	s := newServer(t)
	s.clock.Set(time.Date(2030, 1, 1, 10, 30, 0, 0, time.UTC))
	form := s.bookingForm()
	form["startTime"], form["endTime"] = "10:00", "12:00"
	if rec := s.do(t, http.MethodPost, "/api/bookings/", form); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", rec.Code, rec.Body.String())
	}

	slots := decode[[]SlotView](t, s.do(t, http.MethodGet, "/api/slots/", nil))
	if len(slots) != 1 {
		t.Fatalf("slots = %d, want 1", len(slots))
	}
	got := slots[0]
	if got.AvailableSlots != 0 || got.Price != "50.00" || got.OrganizationName != "City Mall" {
		t.Fatalf("slot = %+v", got)
	}
	if fmt.Sprint(got.Features) != "[Secure 24/7]" {
		t.Fatalf("features = %v, want defaults", got.Features)
	}
	if got.ID != s.slot.ID {
		t.Fatalf("id = %d, want %d", got.ID, s.slot.ID)
	}
}

func TestSlotAvailability(t *testing.T) {
	s := newServer(t)
	s.book(t)

	query := func(id uint64, q string) string {
		return fmt.Sprintf("/api/slots/%d/availability?%s", id, q)
	}
	tests := []struct {
		name      string
		q         string
		wantAdmit bool
		wantFree  int
		wantCost  string
	}{
		{"overlaps booking", "startDate=2030-01-01&startTime=11:00&endDate=2030-01-01&endTime=13:00", false, 0, "100.00"},
		{"after booking", "startDate=2030-01-01&startTime=12:00&endDate=2030-01-01&endTime=13:00", true, 1, "50.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, query(s.slot.ID, tt.q), nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			got := decode[availabilityResp](t, rec)
			if got.Available != tt.wantAdmit || got.Free != tt.wantFree || got.TotalCost != tt.wantCost {
				t.Fatalf("availability = %+v, want admit %v free %d cost %s", got, tt.wantAdmit, tt.wantFree, tt.wantCost)
			}
			if got.TotalSlots != 1 || got.Slot != s.slot.ID {
				t.Fatalf("availability = %+v", got)
			}
		})
	}

	bad := []struct {
		name string
		id   uint64
		q    string
		want int
	}{
		{"unknown slot", s.slot.ID + 99, "startDate=2030-01-01&startTime=10:00&endDate=2030-01-01&endTime=11:00", http.StatusNotFound},
		{"end before start", s.slot.ID, "startDate=2030-01-01&startTime=11:00&endDate=2030-01-01&endTime=10:00", http.StatusBadRequest},
		{"bad date", s.slot.ID, "startDate=01/01/2030&startTime=10:00&endDate=2030-01-01&endTime=11:00", http.StatusBadRequest},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.do(t, http.MethodGet, query(tt.id, tt.q), nil); rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
