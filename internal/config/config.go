package config

import (
	"fmt"
	"strings"
)

// Config is the full set of recognised settings. It is read from the environment
// once by Load and then handed to each component.
type Config interface {
	EnvConfig
	CorsConfig
	ProviderConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	Cors
	Provider
	Session
}

// Load reads every recognised environment variable and validates the required ones.
func Load() (Config, error) {
	return New(loadEnvVars(), loadCors(), loadProvider(), loadSession())
}

// New assembles a Config from already-populated parts and validates it.
func New(env EnvVars, cors Cors, provider Provider, session Session) (Config, error) {
	c := &mainConfig{
		EnvVars:  env,
		Cors:     cors,
		Provider: provider,
		Session:  session,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *mainConfig) validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, clientIDEnvVar)
	}
	if c.ClientSecret == "" {
		missing = append(missing, clientSecretEnvVar)
	}
	if c.Issuer == "" {
		missing = append(missing, issuerEnvVar)
	}
	if c.Secret == "" {
		missing = append(missing, sessionSecretEnvVar)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if len(c.Secret) < minSessionSecretLength {
		return fmt.Errorf("%s must be at least %d bytes", sessionSecretEnvVar, minSessionSecretLength)
	}
	return nil
}
