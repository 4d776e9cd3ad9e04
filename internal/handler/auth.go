package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reserve-my-spot/internal/booking"
	"github.com/iliyamo/reserve-my-spot/internal/config"
	"github.com/iliyamo/reserve-my-spot/internal/middleware"
	"github.com/iliyamo/reserve-my-spot/internal/model"
	"github.com/iliyamo/reserve-my-spot/internal/repository"
	"github.com/iliyamo/reserve-my-spot/internal/utils"
)

// AuthHandler bundles dependencies for organization registration and
// operator login.
type AuthHandler struct {
	Cfg  config.Config
	Orgs OrganizationStore
}

func NewAuthHandler(cfg config.Config, orgs OrganizationStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Orgs: orgs}
}

// ----- DTOs -----

type registerOrgReq struct {
	Name          string `json:"name"`
	OrgType       string `json:"org_type"`
	Description   string `json:"description"`
	TotalSlots2W  int    `json:"total_slots_2w"`
	TotalSlots4W  int    `json:"total_slots_4w"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	ContactPerson string `json:"contact_person"`
	ContactPhone  string `json:"contact_phone"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	PlatePattern  string `json:"plate_pattern"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // organization | admin
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type loginResp struct {
	ID     uint64    `json:"id"`
	Name   string    `json:"name,omitempty"`
	Role   string    `json:"role"`
	Access tokenPart `json:"access"`
}

// RegisterOrganization creates an organization account.
func (h *AuthHandler) RegisterOrganization(c echo.Context) error {
	var req registerOrgReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required", "field": "name"})
	case req.Email == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required", "field": "email"})
	case req.TotalSlots2W < 0 || req.TotalSlots4W < 0:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot totals must not be negative", "field": "total_slots_2w"})
	}
	if req.PlatePattern != "" {
		if _, err := booking.CompilePlatePattern(req.PlatePattern); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plate pattern", "field": "plate_pattern"})
		}
		req.PlatePattern = booking.AnchorPlatePattern(req.PlatePattern)
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooShort) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	org := &model.Organization{
		Name:          req.Name,
		OrgType:       req.OrgType,
		Description:   req.Description,
		TotalSlots2W:  req.TotalSlots2W,
		TotalSlots4W:  req.TotalSlots4W,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		ZipCode:       req.ZipCode,
		ContactPerson: req.ContactPerson,
		ContactPhone:  req.ContactPhone,
		Email:         req.Email,
		PasswordHash:  hash,
		PlatePattern:  req.PlatePattern,
	}
	if err := h.Orgs.CreateOrganization(ctx, org); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create organization failed"})
	}
	return c.JSON(http.StatusCreated, organizationView(*org))
}

// Login verifies organization or admin credentials and returns an access
// token carrying the role.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	var resp loginResp
	switch strings.ToLower(strings.TrimSpace(req.Role)) {
	case middleware.RoleOrganization:
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		org, err := h.Orgs.GetOrganizationByEmail(ctx, req.Email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid organization credentials"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !utils.VerifyPassword(org.PasswordHash, req.Password) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid organization credentials"})
		}
		resp = loginResp{ID: org.ID, Name: org.Name, Role: middleware.RoleOrganization}
	case middleware.RoleAdmin:
		if h.Cfg.AdminEmail == "" || h.Cfg.AdminPasswordHash == "" ||
			req.Email != h.Cfg.AdminEmail || !utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid admin credentials"})
		}
		resp = loginResp{Role: middleware.RoleAdmin}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "please select a valid role", "field": "role"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, resp.ID, resp.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	resp.Access = tokenPart{Token: access.Token, Expires: access.Exp}
	return c.JSON(http.StatusOK, resp)
}
