package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tempo-api/internal/model"
	"tempo-api/pkg/logger"
	"tempo-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Context keys set by TenantResolver for downstream handlers.
const (
	TenantContextKey = "tenant"
	TenantIDKey      = "tenant_id"
)

// TenantContext is the transient per-request tenant record. The subscription
// status is deliberately left out: once a request passes the gate, downstream
// code never branches on billing state.
type TenantContext struct {
	ID        uint   `json:"id"`
	Slug      string `json:"slug"`
	LegalName string `json:"legal_name"`
	Settings  string `json:"settings"`
}

// ExtractSlug parses a request path of the form /<prefix>/<slug>[/...] and
// returns the slug segment. The second return value is false when the path
// does not carry the prefix or the slug segment is empty.
func ExtractSlug(path, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "/"+prefix+"/")
	if !ok {
		return "", false
	}
	slug, _, _ := strings.Cut(rest, "/")
	if slug == "" {
		return "", false
	}
	return slug, true
}

// TenantResolver resolves the tenant slug in the request path to a tenant
// record and attaches it to the request context. Requests for unknown or
// non-billable tenants are terminated here and never reach a handler.
func TenantResolver(db *gorm.DB, prefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			slug, ok := ExtractSlug(c.Request().URL.Path, prefix)
			if !ok {
				prometheus.RecordTenantResolution("missing_slug")
				return c.JSON(http.StatusBadRequest, echo.Map{
					"error":   "Tenant slug required",
					"message": fmt.Sprintf("URL must be in format: /%s/{tenantSlug}/...", prefix),
				})
			}

			defer prometheus.TrackDBOperation("query")(time.Now())

			var tenant model.Tenant
			result := db.
				Select("id", "slug", "legal_name", "settings", "subscription_status").
				Where("slug = ?", slug).
				First(&tenant)
			if result.Error != nil {
				if errors.Is(result.Error, gorm.ErrRecordNotFound) {
					prometheus.RecordTenantResolution("not_found")
					return c.JSON(http.StatusNotFound, echo.Map{
						"error":   "Tenant not found",
						"message": fmt.Sprintf("Tenant '%s' does not exist", slug),
					})
				}
				// Never leak store errors to the caller
				log.Error("Tenant lookup failed", zap.String("slug", slug), zap.Error(result.Error))
				prometheus.RecordTenantResolution("error")
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"error": "Internal server error",
				})
			}

			if !tenant.Billable() {
				prometheus.RecordTenantResolution("suspended")
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":   "Tenant suspended",
					"message": "This tenant account is not active",
				})
			}

			c.Set(TenantContextKey, &TenantContext{
				ID:        tenant.ID,
				Slug:      tenant.Slug,
				LegalName: tenant.LegalName,
				Settings:  tenant.Settings,
			})
			c.Set(TenantIDKey, tenant.ID)

			prometheus.RecordTenantResolution("ok")
			log.Debug("Resolved tenant",
				zap.String("slug", tenant.Slug),
				zap.Uint("tenant_id", tenant.ID))

			return next(c)
		}
	}
}

// TenantFromContext returns the tenant attached by TenantResolver.
func TenantFromContext(c echo.Context) (*TenantContext, bool) {
	tenant, ok := c.Get(TenantContextKey).(*TenantContext)
	return tenant, ok
}
