package config

const redisURLVar = "REDIS_URL"

type StorageConfig interface {
	GetRedisURL() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetRedisURL selects the Redis token slot repo (e.g. "redis://localhost:6379/0");
// empty keeps token slots in memory.
func (Storage) GetRedisURL() string {
	return GetEnv(redisURLVar, "")
}
