package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2, cfg.Scheduler.MaxBlocksPerSession)
	assert.Equal(t, 45, cfg.Scheduler.DefaultBlockMinutes)
	assert.InDelta(t, 0.80, cfg.Scheduler.CoverageWeight, 1e-9)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.GridCacheTTL)
	assert.Equal(t, 2, cfg.Notifications.Workers)
}

func TestLoadFromEnvironment(t *testing.T) {
	inTempDir(t)
	t.Setenv("ENV", EnvProduction)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SCHEDULER_MAX_BLOCKS_PER_SESSION", "3")
	t.Setenv("SCHEDULER_GRID_CACHE_TTL", "not-a-duration")
	t.Setenv("SCHEDULER_REQUIRE_SPECIALTY", "true")
	t.Setenv("NOTIFICATIONS_WORKERS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 3, cfg.Scheduler.MaxBlocksPerSession)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.GridCacheTTL)
	assert.True(t, cfg.Scheduler.RequireSpecialty)
	assert.Equal(t, 2, cfg.Notifications.Workers)
}

func inTempDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
