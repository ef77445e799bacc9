package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-matchmaking-backoffice/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "API_BASE_URL", "API_TIMEOUT", "SESSION_MAX_AGE", "SESSION_CACHE_SIZE", "REDIS_URL", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:5000", c.GetAPIBaseURL())
	require.Equal(t, 10*time.Second, c.GetAPITimeout())
	require.Equal(t, 12*time.Hour, c.GetMaxSessionAge())
	require.Equal(t, 1024, c.GetSessionCacheSize())
	require.Empty(t, c.GetRedisURL())
	require.Empty(t, c.GetAllowedOrigins())
	require.False(t, c.GetSecureCookies())
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("ENV", "prod")
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("SESSION_MAX_AGE", "not-a-duration")
	t.Setenv("SESSION_CACHE_SIZE", "-5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	c := config.New()

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "PROD", c.GetEnv())
	require.True(t, c.GetSecureCookies())
	require.Equal(t, "https://api.example.com", c.GetAPIBaseURL())
	require.Equal(t, 3*time.Second, c.GetAPITimeout())
	require.Equal(t, 12*time.Hour, c.GetMaxSessionAge())
	require.Equal(t, 1024, c.GetSessionCacheSize())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example.com"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("https://c.example.com"))
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("APP_NAME=Back Office Test\n"), 0o600))
	t.Setenv("APP_NAME", "")
	require.NoError(t, os.Unsetenv("APP_NAME"))

	c, err := config.NewFromFile(file)
	require.NoError(t, err)
	require.Equal(t, "Back Office Test", c.GetAppName())

	_, err = config.NewFromFile(filepath.Join(dir, "missing.env"))
	require.Error(t, err)
}
