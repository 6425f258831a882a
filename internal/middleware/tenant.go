package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront/internal/tenant"
	"storefront/pkg/logger"
	"storefront/prometheus"
)

const scopeContextKey = "scope_id"

// TenantMiddleware resolves the tenant slug carried in the configured header
// to a scope token and stores it in the request context. Every tenant-scoped
// route sits behind this; handlers never see raw tenant identifiers.
func TenantMiddleware(router *tenant.Router, header string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			publicID := c.Request().Header.Get(header)
			if publicID == "" {
				prometheus.RecordTenantContextMissing()
				log.Warn("missing tenant header", zap.String("header", header))
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing tenant identifier"})
			}

			scopeID, err := router.Resolve(c.Request().Context(), publicID)
			if err != nil {
				switch {
				case errors.Is(err, tenant.ErrInvalidTenantIdentifier):
					log.Warn("invalid tenant identifier", zap.String("tenant", publicID))
					return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant identifier"})
				case errors.Is(err, tenant.ErrTenantNotFound):
					log.Warn("unknown tenant", zap.String("tenant", publicID))
					return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
				default:
					log.Error("tenant resolution failed", zap.String("tenant", publicID), zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant resolution failed"})
				}
			}

			c.Set(scopeContextKey, scopeID)
			c.Set("logger", log.With(zap.String("scope_id", scopeID)))
			return next(c)
		}
	}
}

// ScopeFromContext retrieves the resolved scope token from the context.
// Returns "", false when the tenant middleware did not run.
func ScopeFromContext(c echo.Context) (string, bool) {
	scopeID, ok := c.Get(scopeContextKey).(string)
	return scopeID, ok && scopeID != ""
}
