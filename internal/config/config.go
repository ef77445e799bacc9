package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	Storage
}

// New loads an optional .env file and returns the environment backed config.
// Variables already present in the environment win over the file.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}

// NewFromFile loads the given env files before returning the config.
func NewFromFile(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		return nil, err
	}
	return mainConfig{}, nil
}
