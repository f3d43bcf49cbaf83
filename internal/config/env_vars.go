package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	baseURLVar     = "BASE_URL"
	envEnvVar      = "ENV"
	logLevelEnvVar = "LOG_LEVEL"
)

type EnvVars struct {
	Port     string
	AppName  string
	BaseURL  string
	Env      string
	LogLevel string
}

var _ EnvConfig = EnvVars{}

func loadEnvVars() EnvVars {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return EnvVars{
		Port:     port,
		AppName:  GetEnv(appNameVar, "GOAT Session Manager"),
		BaseURL:  strings.TrimRight(GetEnv(baseURLVar, "http://localhost:8080"), "/"),
		Env:      GetEnv(envEnvVar, "DEV"),
		LogLevel: GetEnv(logLevelEnvVar, "info"),
	}
}

func (e EnvVars) GetPort() string {
	return e.Port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

// GetBaseURL returns the externally visible URL of this service (e.g., "https://app.example.com").
// The provider redirects back to GetBaseURL()+"/auth/callback".
func (e EnvVars) GetBaseURL() string {
	return e.BaseURL
}

func (e EnvVars) GetEnv() string {
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
