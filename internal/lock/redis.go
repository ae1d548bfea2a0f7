package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GANESH4511/Dataverse/internal/config"
	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "dataverse:lock:"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker shares locks between instances through SET NX PX.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// NewRedisClient connects and pings, retrying a few times with backoff.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	const maxRetries = 5

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		client.Close()

		logger.Warn("Redis connection failed (attempt %d/%d), retrying...", i+1, maxRetries)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}

func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{keyPrefix + key}, token).Err(); err != nil && err != redis.Nil {
				logger.Error("Failed to release lock %s: %v", key, err)
			}
		})
	}, nil
}
