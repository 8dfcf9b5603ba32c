package utils

import (
	"context"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
)

func redisOptions() *redis.Options {
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	}
}

// GetRedisClient connects to the redis configured in env and pings it.
func GetRedisClient(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(redisOptions())
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
