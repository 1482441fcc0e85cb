package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

var RedisClient *redis.Client

const loginAttemptKeyPrefix = "login:attempts:"
const loginAttemptWindow = 15 * time.Minute

// InitRedis connects the optional Redis client used for login rate
// limiting. The feature degrades to a no-op when REDIS_URL is unset or
// Redis is unreachable.
func InitRedis() {
	redisURL := viper.GetString("REDIS_URL")
	if redisURL == "" {
		log.Println("REDIS_URL not configured, login rate limiting will be disabled")
		return
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Warning: failed to parse REDIS_URL: %v - login rate limiting disabled", err)
		return
	}

	RedisClient = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: failed to connect to Redis: %v - login rate limiting disabled", err)
		RedisClient = nil
		return
	}

	log.Println("Connected to Redis")
}

// RecordLoginFailure increments the failed-attempt counter for an email
// and returns the count within the current window.
func RecordLoginFailure(email string) (int64, error) {
	if RedisClient == nil {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("%s%s", loginAttemptKeyPrefix, email)
	count, err := RedisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		RedisClient.Expire(ctx, key, loginAttemptWindow)
	}
	return count, nil
}

// LoginFailures returns the current failed-attempt count for an email.
// Returns 0 when Redis is unavailable or the key does not exist.
func LoginFailures(email string) int64 {
	if RedisClient == nil {
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("%s%s", loginAttemptKeyPrefix, email)
	count, err := RedisClient.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return count
}

// ResetLoginFailures clears the failed-attempt counter after a
// successful login.
func ResetLoginFailures(email string) {
	if RedisClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	RedisClient.Del(ctx, fmt.Sprintf("%s%s", loginAttemptKeyPrefix, email))
}
