package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "local")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, 24, cfg.JWT.TTLHours)
	assert.Equal(t, "0 3 * * *", cfg.Scheduler.StorageReconcileSpec)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("MAIL_MAX_PER_RECIPIENT_PER_HOUR", "3")
	t.Setenv("STORAGE_PROVIDER", "s3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 3, cfg.Mail.MaxPerRecipientPerHour)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("STORAGE_PROVIDER", "local")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_AdminPanelToggle(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "local")
	t.Setenv("ADMIN_PANEL_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Admin.PanelEnabled)

	t.Setenv("ADMIN_PANEL_ENABLED", "maybe")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.Admin.PanelEnabled)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "ftp")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_PROVIDER")
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, LoadTestConfig().Save(path))
	assert.FileExists(t, path)
}
