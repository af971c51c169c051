package middleware

import (
	"net/http"
	"strings"

	"tempo-api/internal/model"
	"tempo-api/pkg/jwtutil"
	"tempo-api/pkg/logger"
	"tempo-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token from the Authorization header and
// checks that the token was issued for the tenant resolved from the path.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// A token minted for one tenant must not open another tenant's door
		if tenant, ok := TenantFromContext(c); ok && claims.TenantID != tenant.ID {
			log.Warn("Token tenant mismatch",
				zap.Uint("token_tenant_id", claims.TenantID),
				zap.Uint("request_tenant_id", tenant.ID))
			prometheus.RecordAuthError("tenant_mismatch")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "token not valid for this tenant"})
		}

		// Store user info in context for later use
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("user_role", claims.Role)

		return next(c)
	}
}

// RequireManager allows only users holding the manager role past this point.
func RequireManager(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("user_role").(string)
		if role != model.RoleManager {
			logger.FromContext(c).Warn("Manager-only endpoint denied", zap.String("role", role))
			prometheus.RecordAuthError("manager_required")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "manager role required"})
		}
		return next(c)
	}
}
