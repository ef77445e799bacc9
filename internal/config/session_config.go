package config

import "time"

const (
	sessionMaxAgeVar    = "SESSION_MAX_AGE"
	sessionSecretVar    = "SESSION_SECRET"
	sessionCacheSizeVar = "SESSION_CACHE_SIZE"
	sessionWaitVar      = "SESSION_WAIT"
)

type SessionConfig interface {
	GetMaxSessionAge() time.Duration
	GetSessionSecret() string
	GetSessionCacheSize() int
	GetSessionWait() time.Duration
	GetSecureCookies() bool
}

type Session struct{}

var _ SessionConfig = Session{}

// GetMaxSessionAge is the lifetime of the browser cookie and the token slot TTL
// when the bearer token carries no readable expiry.
func (Session) GetMaxSessionAge() time.Duration {
	return GetDuration(sessionMaxAgeVar, 12*time.Hour)
}

// GetSessionSecret seals tokens at rest when set
func (Session) GetSessionSecret() string {
	return GetEnv(sessionSecretVar, "")
}

// GetSessionCacheSize bounds the number of live session stores kept in memory
func (Session) GetSessionCacheSize() int {
	n := GetInt(sessionCacheSizeVar, 1024)
	if n <= 0 {
		return 1024
	}
	return n
}

// GetSessionWait is how long the loading poll blocks waiting for an identity resolution
func (Session) GetSessionWait() time.Duration {
	return GetDuration(sessionWaitVar, 5*time.Second)
}

func (Session) GetSecureCookies() bool {
	return EnvVars{}.GetEnv() == "PROD"
}
