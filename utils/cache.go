// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"meetsy/config"

	"github.com/go-redis/redis/v8"
)

// SessionCacheClient is the dedicated Redis client for conversation sessions.
var SessionCacheClient *redis.Client

// InitSessionCache initializes the Redis client used by the session store.
// It is only called when REDIS_ADDR is configured; without Redis the engine
// keeps sessions in process memory.
func InitSessionCache() {
	SessionCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := SessionCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Session Cache): %v", err)
	}
}

// GetSessionCacheClient returns the Redis client for session caching.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		InitSessionCache()
	}
	return SessionCacheClient
}
