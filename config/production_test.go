package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProductionConfigFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file:relay.db")
	t.Setenv("MESSAGING_PROVIDER", "mock")
	t.Setenv("MESSAGING_TIMEOUT", "3s")
	t.Setenv("MESSAGING_DEFAULT_COUNTRY_PREFIX", "351")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:relay.db", cfg.Database.DSN)
	assert.Equal(t, "mock", cfg.Messaging.Provider)
	assert.Equal(t, 3*time.Second, cfg.Messaging.Timeout)
	assert.Equal(t, "351", cfg.Messaging.DefaultCountryPrefix)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.False(t, cfg.Cache.Enabled)
	assert.Empty(t, cfg.JWT.SecretKey)
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := "# relay\nDB_DRIVER=sqlite\nDB_DSN='file:from-env-file.db'\nMESSAGING_PROVIDER=\"mock\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
	t.Setenv("MESSAGING_PROVIDER", "ultramsg")
	// values set by loadEnvFile must not leak into other tests
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_DSN", "")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)
	assert.Equal(t, "file:from-env-file.db", cfg.Database.DSN)
	assert.Equal(t, "ultramsg", cfg.Messaging.Provider)
}

func TestValidateProductionConfigAggregatesErrors(t *testing.T) {
	cfg := &ProductionConfig{
		Database:  DatabaseConfig{Driver: "mysql"},
		Server:    ServerConfig{Port: 0},
		JWT:       JWTConfig{SecretKey: "short"},
		Messaging: MessagingConfig{Provider: "sms", DefaultCountryPrefix: "+34"},
		Logging:   LoggingConfig{Level: "trace", Output: "stdout"},
	}

	err := ValidateProductionConfig(cfg)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "DB_DRIVER must be one of")
	assert.Contains(t, msg, "ADMIN_JWT_SECRET must be at least 32 characters long")
	assert.Contains(t, msg, "SERVER_PORT must be between 1 and 65535")
	assert.Contains(t, msg, "MESSAGING_PROVIDER must be one of")
	assert.Contains(t, msg, "MESSAGING_TIMEOUT must be positive")
	assert.Contains(t, msg, "MESSAGING_DEFAULT_COUNTRY_PREFIX must contain digits only")
	assert.Contains(t, msg, "LOG_LEVEL must be one of")
}
