package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iho/walletd/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotEmpty(t, cfg.DatabaseURL)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, "USD", cfg.DefaultCurrency)
	require.Equal(t, "migrations", cfg.MigrationsPath)
	require.Equal(t, 100, cfg.OutboxBatchSize)
	require.Equal(t, 5*time.Second, cfg.OutboxInterval)
	require.Equal(t, "walletd.events", cfg.OutboxChannel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("OUTBOX_INTERVAL", "1s")
	t.Setenv("OUTBOX_CHANNEL", "ledger.events")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "postgres://example", cfg.DatabaseURL)
	require.Equal(t, "redis://example", cfg.RedisURL)
	require.Equal(t, "9090", cfg.HTTPPort)
	require.Equal(t, 45*time.Second, cfg.DatabaseTimeout)
	require.Equal(t, time.Second, cfg.OutboxInterval)
	require.Equal(t, "ledger.events", cfg.OutboxChannel)
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	_, err := config.Load()
	require.Error(t, err)
}
