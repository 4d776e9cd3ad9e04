package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/reserve-my-spot/internal/booking"
	"github.com/iliyamo/reserve-my-spot/internal/config"
	"github.com/iliyamo/reserve-my-spot/internal/handler"
	"github.com/iliyamo/reserve-my-spot/internal/middleware"
	"github.com/iliyamo/reserve-my-spot/internal/model"
	"github.com/iliyamo/reserve-my-spot/internal/repository"
	"github.com/iliyamo/reserve-my-spot/internal/utils"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newEcho(t *testing.T) (*echo.Echo, *model.Organization, *model.Slot, config.Config) {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	org := &model.Organization{Name: "City Mall", Email: "ops@citymall.example", TotalSlots4W: 3}
	if err := store.CreateOrganization(ctx, org); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	slot := &model.Slot{OrganizationID: org.ID, Name: "Basement", VehicleType: model.FourWheeler,
		TotalCapacity: 3, HourlyRate: decimal.NewFromInt(40), IsActive: true}
	if err := store.CreateSlot(ctx, slot); err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}

	clock := fixedClock{time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)}
	inv := booking.NewInventory(store)
	ledger := booking.NewLedger(booking.LedgerConfig{
		Store: store, Catalog: store, Inventory: inv, Codes: booking.NewCodeIssuer(0),
		Clock: clock, GraceWindow: 15 * time.Minute,
	})
	cfg := config.Config{JWTSecret: "router-secret", AccessTTLMin: 15, BcryptCost: 4, CSRFEnabled: true}

	e := echo.New()
	RegisterRoutes(e, Deps{
		Cfg:     cfg,
		Health:  &handler.HealthHandler{},
		Public:  &handler.PublicHandler{Slots: store, Inventory: inv, Clock: clock, Loc: time.UTC},
		Booking: &handler.BookingHandler{Ledger: ledger, Verifier: ledger.Verifier(), Loc: time.UTC},
		Auth:    handler.NewAuthHandler(cfg, store),
		Org: &handler.OrgHandler{Orgs: store, Slots: store, Bookings: store, Ledger: ledger,
			Inventory: inv, Clock: clock, Loc: time.UTC},
		Admin: &handler.AdminHandler{Orgs: store, Bookings: store, Loc: time.UTC},
	})
	return e, org, slot, cfg
}

func send(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bookingRequest(slotID uint64) *http.Request {
	body, _ := json.Marshal(map[string]any{
		"slot": slotID, "customerName": "Asha Rao", "phoneNumber": "9876543210",
		"vehicleType": "car", "vehicleNumber": "KA01AB1234",
		"startDate": "2030-01-01", "startTime": "09:00", "endDate": "2030-01-01", "endTime": "10:00",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestBookingRequiresCSRFToken(t *testing.T) {
	e, _, slot, _ := newEcho(t)

	if rec := send(e, bookingRequest(slot.ID)); rec.Code != http.StatusBadRequest && rec.Code != http.StatusForbidden {
		t.Fatalf("no csrf status = %d, want 400 or 403", rec.Code)
	}

	list := send(e, httptest.NewRequest(http.MethodGet, "/api/slots/", nil))
	if list.Code != http.StatusOK {
		t.Fatalf("list status = %d", list.Code)
	}
	var token string
	for _, c := range list.Result().Cookies() {
		if c.Name == "csrftoken" {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatalf("slot listing did not set csrftoken cookie")
	}

	req := bookingRequest(slot.ID)
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: token})
	req.Header.Set("X-CSRFToken", token)
	if rec := send(e, req); rec.Code != http.StatusCreated {
		t.Fatalf("with csrf status = %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestOperatorRoutesRequireRole(t *testing.T) {
	e, org, _, cfg := newEcho(t)
	orgTok, _ := utils.NewAccessToken(cfg.JWTSecret, org.ID, middleware.RoleOrganization, 15)
	adminTok, _ := utils.NewAccessToken(cfg.JWTSecret, 0, middleware.RoleAdmin, 15)

	tests := []struct {
		path  string
		token string
		want  int
	}{
		{"/api/org-dashboard-stats/", "", http.StatusUnauthorized},
		{"/api/org-dashboard-stats/", adminTok.Token, http.StatusForbidden},
		{"/api/org-dashboard-stats/", orgTok.Token, http.StatusOK},
		{"/api/admin/bookings/", orgTok.Token, http.StatusForbidden},
		{"/api/admin/bookings/", adminTok.Token, http.StatusOK},
		{"/api/organizations/", adminTok.Token, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
		}
		if rec := send(e, req); rec.Code != tt.want {
			t.Fatalf("GET %s status = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestHealthRoutes(t *testing.T) {
	e, _, _, _ := newEcho(t)
	for _, p := range []string{"/healthz", "/readyz"} {
		if rec := send(e, httptest.NewRequest(http.MethodGet, p, nil)); rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", p, rec.Code)
		}
	}
}
