package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("MAESTRO_JWT_SECRET", "secret")
	t.Setenv("MAESTRO_APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Maestro API", cfg.AppName)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 10*time.Minute, cfg.ScheduleCacheTTL)
	require.Equal(t, 15*time.Second, cfg.ScheduleLockTTL)
	require.Equal(t, "maestro:schedule", cfg.ScheduleEventChannel)
	require.Equal(t, 120.0, cfg.MonthlyPrice)
	require.Equal(t, int64(2<<20), cfg.ImportMaxBytes)
	require.Equal(t, "*", cfg.CORSAllowOrigins)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("MAESTRO_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidDurations(t *testing.T) {
	t.Setenv("MAESTRO_JWT_SECRET", "secret")
	t.Setenv("MAESTRO_SCHEDULE_LOCK_TTL", "forever")

	_, err := Load()
	require.Error(t, err)
}
