package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func requiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SPOTFORM_JWT_SECRET", "secret")
	t.Setenv("SPOTFORM_PLACES_BASE_URL", "https://places.test")
}

func TestLoadDefaults(t *testing.T) {
	requiredEnv(t)

	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "https://places.test", cfg.PlacesBaseURL)
	require.Equal(t, 10*time.Second, cfg.PlacesTimeout)
	require.Equal(t, "user", cfg.PlacesListMode)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, "file:spotform.db", cfg.DatabaseURL)
	require.Equal(t, "/login", cfg.LoginURL)
	require.Equal(t, 5*time.Second, cfg.NotificationTTL)
	require.Equal(t, 3*time.Second, cfg.ReloadDelay)
	require.Equal(t, int64(10<<20), cfg.MaxImageBytes)
	require.Equal(t, time.Minute, cfg.SubmissionsCacheTTL)
	require.Equal(t, 5, cfg.SubmitRateLimit)
	require.Equal(t, 10*time.Second, cfg.SubmitRateWindow)
	require.Equal(t, "places.submitted", cfg.NATSSubject)
	require.Equal(t, []string{"*"}, cfg.AllowOrigins)
	require.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	requiredEnv(t)
	t.Setenv("SPOTFORM_APP_PORT", ":9090")
	t.Setenv("SPOTFORM_PLACES_LIST_MODE", "NAME")
	t.Setenv("SPOTFORM_FORM_RELOAD_DELAY", "500ms")
	t.Setenv("SPOTFORM_FORM_MAX_IMAGE_MB", "2")
	t.Setenv("SPOTFORM_CORS_ALLOW_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("SPOTFORM_DATABASE_DRIVER", "postgres")

	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, "name", cfg.PlacesListMode)
	require.Equal(t, 500*time.Millisecond, cfg.ReloadDelay)
	require.Equal(t, int64(2<<20), cfg.MaxImageBytes)
	require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowOrigins)
	require.Equal(t, "postgres", cfg.DatabaseDriver)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":   {"SPOTFORM_PLACES_BASE_URL": "https://places.test"},
		"missing base url": {"SPOTFORM_JWT_SECRET": "secret"},
		"bad scheme":       {"SPOTFORM_JWT_SECRET": "secret", "SPOTFORM_PLACES_BASE_URL": "ftp://places.test"},
		"bad list mode":    {"SPOTFORM_JWT_SECRET": "secret", "SPOTFORM_PLACES_BASE_URL": "https://places.test", "SPOTFORM_PLACES_LIST_MODE": "email"},
		"bad duration":     {"SPOTFORM_JWT_SECRET": "secret", "SPOTFORM_PLACES_BASE_URL": "https://places.test", "SPOTFORM_FORM_NOTIFICATION_TTL": "soon"},
		"bad driver":       {"SPOTFORM_JWT_SECRET": "secret", "SPOTFORM_PLACES_BASE_URL": "https://places.test", "SPOTFORM_DATABASE_DRIVER": "mysql"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("SPOTFORM_JWT_SECRET", "")
			t.Setenv("SPOTFORM_PLACES_BASE_URL", "")
			for key, value := range env {
				t.Setenv(key, value)
			}
			_, err := load(viper.New())
			require.Error(t, err)
		})
	}
}
