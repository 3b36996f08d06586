package caselock

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedis connects the shared Redis client. An empty addr disables the
// lock entirely; adjudication then runs unguarded, which is the
// documented single-instance behavior.
func InitRedis(addr, password string, db int) error {
	if addr == "" {
		log.Println("redis not configured, adjudication single-flight guard disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	redisClient = client
	return nil
}

// Client returns the shared Redis client, nil when disabled.
func Client() *redis.Client {
	return redisClient
}
