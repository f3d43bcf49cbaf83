package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-session-manager/internal/config"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("KEYCLOAK_CLIENT_ID", "goat")
	t.Setenv("KEYCLOAK_CLIENT_SECRET", "shh")
	t.Setenv("KEYCLOAK_ISSUER", "https://auth.example.com/realms/goat/")
	t.Setenv("SESSION_SECRET", testSecret)
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PORT", "")
		t.Setenv("ENV", "")

		c, err := config.Load()
		require.NoError(t, err)
		require.Equal(t, ":8080", c.GetPort())
		require.Equal(t, "DEV", c.GetEnv())
		require.Equal(t, "goat", c.GetClientID())
		require.Equal(t, "shh", c.GetClientSecret())
		require.Equal(t, "https://auth.example.com/realms/goat", c.GetIssuer())
		require.Equal(t, config.KeycloakProviderID, c.GetProviderID())
		require.Equal(t, []byte(testSecret), c.GetSessionSecret())
		require.Equal(t, 30*24*time.Hour, c.GetSessionMaxAge())
		require.Equal(t, time.Minute, c.GetTokenRefreshCycle())
		require.Contains(t, c.GetScopes(), "offline_access")
	})

	t.Run("port with colon", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PORT", ":9000")

		c, err := config.Load()
		require.NoError(t, err)
		require.Equal(t, ":9000", c.GetPort())
	})

	t.Run("missing required", func(t *testing.T) {
		setRequired(t)
		t.Setenv("KEYCLOAK_CLIENT_SECRET", "")
		t.Setenv("SESSION_SECRET", "")

		_, err := config.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "KEYCLOAK_CLIENT_SECRET")
		require.Contains(t, err.Error(), "SESSION_SECRET")
		require.NotContains(t, err.Error(), "KEYCLOAK_ISSUER")
	})

	t.Run("short session secret", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SESSION_SECRET", "too-short")

		_, err := config.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "at least 32 bytes")
	})

	t.Run("allowed origins", func(t *testing.T) {
		setRequired(t)
		t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

		c, err := config.Load()
		require.NoError(t, err)
		origins := c.GetAllowedOrigins()
		require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
		require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
		require.Len(t, origins, 2)
	})
}

func TestNew(t *testing.T) {
	c, err := config.New(
		config.EnvVars{Port: ":8080", Env: "TEST"},
		config.Cors{Origins: config.ParseAllowedOrigins("https://app.example.com")},
		config.Provider{ClientID: "goat", ClientSecret: "shh", Issuer: "https://auth.example.com/realms/goat"},
		config.Session{Secret: testSecret},
	)
	require.NoError(t, err)
	require.Equal(t, "TEST", c.GetEnv())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://app.example.com"))

	_, err = config.New(config.EnvVars{}, config.Cors{}, config.Provider{}, config.Session{})
	require.Error(t, err)
}
