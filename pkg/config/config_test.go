package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "./data/tempo.db", cfg.DB.Path)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "t", cfg.Tenant.PathPrefix)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, time.Hour, cfg.DB.ConnMaxLifetime)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TENANT_PATH_PREFIX", "org")
	t.Setenv("JWT_EXPIRATION_HOURS", "6")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "org", cfg.Tenant.PathPrefix)
	assert.Equal(t, 6, cfg.JWT.ExpirationHours)
	assert.Contains(t, cfg.DB.GetDSN(), "host=db.internal")
	assert.Contains(t, cfg.DB.GetDSN(), "port=5433")
}
