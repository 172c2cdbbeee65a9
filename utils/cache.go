// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"clinicbook/config"

	"github.com/go-redis/redis/v8"
)

// ProgressClient is the Redis client used to publish booking progress events.
var ProgressClient *redis.Client

// InitProgressRedis initializes the Redis client for progress pub/sub.
func InitProgressRedis() {
	ProgressClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisProgressDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := ProgressClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Progress): %v", err)
	}
}

// GetProgressClient returns the Redis client for progress pub/sub.
func GetProgressClient() *redis.Client {
	if ProgressClient == nil {
		InitProgressRedis()
	}
	return ProgressClient
}
