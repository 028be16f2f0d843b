package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
)

// RedisClient is the part of *redis.Client the limiter needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

const keyPrefix = "login_attempts:"

// LoginLimiter counts failed logins per client in a fixed window that starts
// at the first failure.
type LoginLimiter struct {
	client      RedisClient
	maxAttempts int
	window      time.Duration
}

var _ ports.LoginThrottle = (*LoginLimiter)(nil)

func NewLoginLimiter(client RedisClient, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, keyPrefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return n < l.maxAttempts, nil
}

func (l *LoginLimiter) RecordFailure(ctx context.Context, key string) error {
	n, err := l.client.Incr(ctx, keyPrefix+key).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return l.client.Expire(ctx, keyPrefix+key, l.window).Err()
	}
	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, keyPrefix+key).Err()
}
