package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront/pkg/jwtutil"
	"storefront/pkg/logger"
)

// AuthMiddleware validates the Bearer token and pins it to the resolved
// tenant scope: a token minted for one shop is rejected on another shop's
// routes even when both belong to the same person.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("missing Authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("invalid Authorization header format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("invalid JWT token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		if scopeID, ok := ScopeFromContext(c); ok && claims.ScopeID != scopeID {
			log.Warn("token scope mismatch",
				zap.String("token_scope", claims.ScopeID),
				zap.String("request_scope", scopeID))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token does not belong to this shop"})
		}

		c.Set("subject_id", claims.SubjectID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		return next(c)
	}
}

// SubjectFromContext retrieves the authenticated subject id from the context.
func SubjectFromContext(c echo.Context) (uint, bool) {
	id, ok := c.Get("subject_id").(uint)
	return id, ok
}
