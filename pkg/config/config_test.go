package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("storefront")
	require.NoError(t, err)

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "storefront", cfg.DB.DBName)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "X-Tenant-ID", cfg.Tenant.Header)
	assert.Equal(t, 5, cfg.Fulfillment.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Fulfillment.BaseBackoff)
	assert.Empty(t, cfg.Redis.Addr, "redis cache is off by default")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_OPEN_CONNS", "25")
	t.Setenv("TENANT_HEADER", "X-Shop")
	t.Setenv("FULFILLMENT_MAX_ATTEMPTS", "3")
	t.Setenv("FULFILLMENT_BASE_BACKOFF", "100ms")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := Load("storefront")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
	assert.Equal(t, "X-Shop", cfg.Tenant.Header)
	assert.Equal(t, 3, cfg.Fulfillment.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Fulfillment.BaseBackoff)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestDSN(t *testing.T) {
	cfg := DBConfig{
		Host: "localhost", Port: "5432", User: "postgres",
		Password: "secret", DBName: "shops", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=shops sslmode=disable",
		cfg.GetDSN())
}
