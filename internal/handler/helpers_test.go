package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/reserve-my-spot/internal/booking"
	"github.com/iliyamo/reserve-my-spot/internal/config"
	"github.com/iliyamo/reserve-my-spot/internal/middleware"
	"github.com/iliyamo/reserve-my-spot/internal/model"
	"github.com/iliyamo/reserve-my-spot/internal/repository"
	"github.com/iliyamo/reserve-my-spot/internal/utils"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

const orgPassword = "s3cret-pass"

// server wires every handler over one memory store holding a single
// organization with one active 4W slot of capacity 1 at 50/hour.
type server struct {
	e     *echo.Echo
	store *repository.MemoryStore
	org   *model.Organization
	slot  *model.Slot
	clock *testClock
	cfg   config.Config
}

// asPrincipal stands in for JWTAuth.
func asPrincipal(id uint64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxPrincipalID, id)
			c.Set(middleware.CtxRole, role)
			return next(c)
		}
	}
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	hash, err := utils.HashPassword(orgPassword, 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	org := &model.Organization{Name: "City Mall", City: "Pune", Email: "ops@citymall.example",
		PasswordHash: hash, TotalSlots4W: 1}
	if err := store.CreateOrganization(ctx, org); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	slot := &model.Slot{OrganizationID: org.ID, Name: "Basement", VehicleType: model.FourWheeler,
		TotalCapacity: 1, HourlyRate: decimal.NewFromInt(50), IsActive: true}
	if err := store.CreateSlot(ctx, slot); err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}

	clock := &testClock{now: time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)}
	inv := booking.NewInventory(store)
	ledger := booking.NewLedger(booking.LedgerConfig{
		Store:       store,
		Catalog:     store,
		Inventory:   inv,
		Codes:       booking.NewCodeIssuer(0),
		Clock:       clock,
		GraceWindow: 15 * time.Minute,
	})
	adminHash, _ := utils.HashPassword("admin-pass", 4)
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, BcryptCost: 4,
		AdminEmail: "admin@example.com", AdminPasswordHash: adminHash}

	pub := &PublicHandler{Slots: store, Inventory: inv, Clock: clock, Loc: time.UTC}
	bk := &BookingHandler{Ledger: ledger, Verifier: ledger.Verifier(), Loc: time.UTC}
	auth := NewAuthHandler(cfg, store)
	oh := &OrgHandler{Orgs: store, Slots: store, Bookings: store, Ledger: ledger, Inventory: inv, Clock: clock, Loc: time.UTC}
	ah := &AdminHandler{Orgs: store, Bookings: store, Loc: time.UTC}

	e := echo.New()
	e.GET("/api/slots/", pub.ListSlots)
	e.GET("/api/slots/:id/availability", pub.Availability)
	e.POST("/api/bookings/", bk.Create)
	e.POST("/api/bookings/cancel/", bk.Cancel)
	e.GET("/api/bookings/qr", bk.QR)
	e.POST("/api/verify/", bk.Verify)
	e.POST("/api/organizations/", auth.RegisterOrganization)
	e.POST("/api/auth/login/", auth.Login)

	asOrg := asPrincipal(org.ID, middleware.RoleOrganization)
	e.GET("/api/org/slots/", oh.ListSlots, asOrg)
	e.POST("/api/org/slots/", oh.CreateSlot, asOrg)
	e.PATCH("/api/org/slots/:id/", oh.UpdateSlot, asOrg)
	e.GET("/api/org/bookings/", oh.ListBookings, asOrg)
	e.POST("/api/org/bookings/:id/checkin/", oh.CheckIn, asOrg)
	e.POST("/api/org/bookings/:id/cancel/", oh.Cancel, asOrg)
	e.GET("/api/org/stats/", oh.DashboardStats, asOrg)
	e.POST("/api/other/bookings/:id/checkin/", oh.CheckIn, asPrincipal(org.ID+100, middleware.RoleOrganization))
	e.GET("/api/admin/bookings/", ah.ListBookings)
	e.GET("/api/organizations/", ah.ListOrganizations)

	return &server{e: e, store: store, org: org, slot: slot, clock: clock, cfg: cfg}
}

func (s *server) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		req = httptest.NewRequest(method, target, strings.NewReader(string(raw)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// bookingForm is a valid booking of the fixture slot from 10:00 to 12:00.
func (s *server) bookingForm() map[string]any {
	return map[string]any{
		"slot":          s.slot.ID,
		"customerName":  "Asha Rao",
		"phoneNumber":   "+91 98765 43210",
		"email":         "asha@example.com",
		"vehicleType":   "4W",
		"vehicleNumber": "MH-12 AB 1234",
		"startDate":     "2030-01-01",
		"startTime":     "10:00",
		"endDate":       "2030-01-01",
		"endTime":       "12:00",
		"totalCost":     "1.00",
	}
}

func (s *server) book(t *testing.T) createBookingResp {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/bookings/", s.bookingForm())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decode[createBookingResp](t, rec)
}
