package handler

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"tempo-api/internal/middleware"
	"tempo-api/internal/model"
	"tempo-api/pkg/database"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB wires a throwaway sqlite store into the package-level handle
// the handlers use.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.UserScope{},
		&model.RotaWeek{},
		&model.RotaShift{},
		&model.Setting{},
		&model.Invite{},
		&model.PasswordReset{},
	))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	return db
}

func createTenant(t *testing.T, db *gorm.DB, slug string) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{
		Slug:               slug,
		LegalName:          slug + " Ltd",
		SubscriptionStatus: model.SubscriptionActive,
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

// newTenantContext builds an echo context the way a request looks after the
// tenant resolver has run.
func newTenantContext(t *testing.T, tenant *model.Tenant, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	c.Set(middleware.TenantContextKey, &middleware.TenantContext{
		ID:        tenant.ID,
		Slug:      tenant.Slug,
		LegalName: tenant.LegalName,
		Settings:  tenant.Settings,
	})
	c.Set(middleware.TenantIDKey, tenant.ID)

	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
