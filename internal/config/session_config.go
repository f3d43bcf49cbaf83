package config

import "time"

const (
	sessionSecretEnvVar    = "SESSION_SECRET"
	minSessionSecretLength = 32
)

type SessionConfig interface {
	GetSessionSecret() []byte
	GetSessionMaxAge() time.Duration
	GetTokenRefreshCycle() time.Duration
}

type Session struct {
	Secret string
}

var _ SessionConfig = Session{}

func loadSession() Session {
	return Session{Secret: GetEnv(sessionSecretEnvVar, "")}
}

func (s Session) GetSessionSecret() []byte {
	return []byte(s.Secret)
}

func (Session) GetSessionMaxAge() time.Duration {
	return 30 * 24 * time.Hour // same as the Keycloak SSO session max
}

func (Session) GetTokenRefreshCycle() time.Duration {
	return 1 * time.Minute
}
