package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront/internal/model"
	"storefront/internal/tenant"
	"storefront/pkg/logger"
)

// TenantHandler serves the platform-level tenant registration and
// administration endpoints. These are not tenant-scoped routes; they operate
// on the registry itself.
type TenantHandler struct {
	router   *tenant.Router
	registry *tenant.Registry
}

func NewTenantHandler(router *tenant.Router, registry *tenant.Registry) *TenantHandler {
	return &TenantHandler{router: router, registry: registry}
}

// RegisterTenantRequest is the shop registration payload.
type RegisterTenantRequest struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Plan          string `json:"plan"`
	OwnerEmail    string `json:"owner_email"`
	OwnerPassword string `json:"owner_password"`
}

// Register provisions a new shop: registry record, isolated scope and seeded
// owner account.
func (h *TenantHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)

	var req RegisterTenantRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid tenant registration payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.OwnerEmail == "" || req.OwnerPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner email and password are required"})
	}

	record, err := h.router.ProvisionTenant(c.Request().Context(),
		tenant.NewTenant{
			Name:       req.Name,
			Slug:       req.Slug,
			Plan:       req.Plan,
			OwnerEmail: req.OwnerEmail,
		},
		tenant.OwnerCredentials{
			Email:    req.OwnerEmail,
			Password: req.OwnerPassword,
		})
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrInvalidTenantIdentifier):
			log.Warn("rejected tenant registration", zap.String("slug", req.Slug), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant data"})
		case errors.Is(err, tenant.ErrTenantExists):
			log.Warn("duplicate tenant slug", zap.String("slug", req.Slug))
			return c.JSON(http.StatusConflict, echo.Map{"error": "a shop with this slug already exists"})
		default:
			log.Error("tenant provisioning failed", zap.String("slug", req.Slug), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant provisioning failed"})
		}
	}

	log.Info("tenant registered",
		zap.String("slug", record.Slug),
		zap.String("scope_id", record.ScopeID))
	return c.JSON(http.StatusCreated, record)
}

// Get returns the registry record for a slug.
func (h *TenantHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)
	slug := c.Param("slug")

	scopeID, err := h.router.Resolve(c.Request().Context(), slug)
	if err != nil {
		return tenantErrorResponse(c, log, slug, err)
	}

	record, err := h.registry.ByScopeID(c.Request().Context(), scopeID)
	if err != nil {
		return tenantErrorResponse(c, log, slug, err)
	}
	return c.JSON(http.StatusOK, record)
}

// UpdateStatus applies an administrative status transition.
func (h *TenantHandler) UpdateStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	slug := c.Param("slug")

	var req struct {
		Status model.TenantStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if !req.Status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	// Status changes apply to suspended tenants too, so resolve against
	// the registry record rather than the active-only path.
	if err := tenant.ValidateIdentifier(slug); err != nil {
		return tenantErrorResponse(c, log, slug, err)
	}
	record, err := h.registry.BySlugAnyStatus(c.Request().Context(), slug)
	if err != nil {
		return tenantErrorResponse(c, log, slug, err)
	}

	updated, err := h.registry.UpdateStatus(c.Request().Context(), record.ScopeID, req.Status)
	if err != nil {
		return tenantErrorResponse(c, log, slug, err)
	}

	log.Info("tenant status updated",
		zap.String("slug", slug),
		zap.String("status", string(req.Status)))
	return c.JSON(http.StatusOK, updated)
}

// Destroy irreversibly deletes a tenant and all of its data.
func (h *TenantHandler) Destroy(c echo.Context) error {
	log := logger.FromEcho(c)
	slug := c.Param("slug")

	if err := tenant.ValidateIdentifier(slug); err != nil {
		return tenantErrorResponse(c, log, slug, err)
	}
	record, err := h.registry.BySlugAnyStatus(c.Request().Context(), slug)
	if err != nil {
		return tenantErrorResponse(c, log, slug, err)
	}

	if err := h.router.Destroy(c.Request().Context(), record.ScopeID); err != nil {
		log.Error("tenant destruction failed", zap.String("slug", slug), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant destruction failed"})
	}

	log.Info("tenant destroyed", zap.String("slug", slug))
	return c.JSON(http.StatusOK, echo.Map{"message": "tenant destroyed"})
}

func tenantErrorResponse(c echo.Context, log *zap.Logger, slug string, err error) error {
	switch {
	case errors.Is(err, tenant.ErrInvalidTenantIdentifier):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant identifier"})
	case errors.Is(err, tenant.ErrTenantNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	default:
		log.Error("tenant operation failed", zap.String("slug", slug), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant operation failed"})
	}
}
