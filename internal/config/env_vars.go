package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar       = "PORT"
	appNameVar       = "APP_NAME"
	envVar           = "ENV"
	logLevelVar      = "LOG_LEVEL"
	apiBaseURLVar    = "API_BASE_URL"
	apiTimeoutEnvVar = "API_TIMEOUT"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Match Back Office")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envVar, "DEV"))
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetAPIBaseURL returns the base URL of the matchmaking REST API (e.g., "https://api.example.com")
func (EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiBaseURLVar, "http://localhost:5000"), "/")
}

// GetAPITimeout bounds every call to the remote API, identity resolution included
func (EnvVars) GetAPITimeout() time.Duration {
	return GetDuration(apiTimeoutEnvVar, 10*time.Second)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetDuration parses a Go duration ("90s", "12h"); invalid values fall back to the default.
func GetDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func GetInt(envVar string, defaultValue int) int {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
