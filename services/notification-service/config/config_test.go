package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pheebyy/carelink/services/notification-service/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, "firestore", cfg.StoreBackend)
	assert.Equal(t, "conversations", cfg.DynamoConvTable)
	assert.Equal(t, 300, cfg.RateLimitPerMinute)
	assert.False(t, cfg.Postgres.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Postgres(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "carelink")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "notifications")
	t.Setenv("POSTGRES_PORT", "")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Postgres.Enabled())
	assert.Equal(t, "host=db user=carelink password=secret dbname=notifications port=5432 sslmode=disable TimeZone=UTC", cfg.Postgres.DSN())
	assert.NoError(t, cfg.Validate())
}

func TestValidate_PostgresMissingUser(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_DB", "notifications")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.EqualError(t, cfg.Validate(), "POSTGRES_USER not set")
}

func TestLoadConfig_InvalidRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}
