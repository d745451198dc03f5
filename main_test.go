package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/order-relay/app/services"
	"github.com/amirphl/order-relay/config"
	"github.com/amirphl/order-relay/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintAdminToken(t *testing.T) {
	cfg := config.JWTConfig{
		SecretKey:      strings.Repeat("k", 32),
		AccessTokenTTL: time.Hour,
		Issuer:         "order-relay",
		Audience:       "order-relay-admin",
	}

	var out bytes.Buffer
	require.NoError(t, printAdminToken(&out, cfg, "ops"))

	tokenService, err := services.NewTokenService(cfg.AccessTokenTTL, cfg.Issuer, cfg.Audience, cfg.SecretKey)
	require.NoError(t, err)
	claims, err := tokenService.ValidateAdminToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)

	cfg.SecretKey = ""
	assert.Error(t, printAdminToken(&out, cfg, "ops"))
}

func TestInitializeDatabaseSQLite(t *testing.T) {
	db, err := initializeDatabase(config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         "file:main_test?mode=memory&cache=shared",
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	assert.True(t, db.Migrator().HasTable(&models.TenantConfig{}))
	assert.True(t, db.Migrator().HasTable(&models.NotificationRecord{}))
}

func TestInitializeCacheDisabled(t *testing.T) {
	rc, err := initializeCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, rc)
}
