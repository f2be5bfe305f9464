package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/service"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultLockPrefix = "lock:"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisBatchLock is a SETNX-based lock shared by every instance running the batch
type RedisBatchLock struct {
	client    *redis.Client
	keyPrefix string
	logger    zerolog.Logger
}

// Ensure RedisBatchLock implements service.BatchLock
var _ service.BatchLock = (*RedisBatchLock)(nil)

// NewRedisBatchLock connects to the Redis URL and verifies the connection
func NewRedisBatchLock(redisURL string, logger zerolog.Logger) (*RedisBatchLock, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisBatchLockWithClient(client, "", logger), nil
}

// NewRedisBatchLockWithClient creates a lock with an existing Redis client
func NewRedisBatchLockWithClient(client *redis.Client, keyPrefix string, logger zerolog.Logger) *RedisBatchLock {
	if keyPrefix == "" {
		keyPrefix = defaultLockPrefix
	}
	return &RedisBatchLock{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger.With().Str("component", "redis_batch_lock").Logger(),
	}
}

// Acquire takes the lock for ttl. It returns domain.ErrBatchInProgress when
// another holder has it. The returned release is safe to call once the TTL has
// lapsed and another holder has taken over.
func (l *RedisBatchLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := l.keyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire batch lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrBatchInProgress
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil {
			l.logger.Warn().Err(err).Str("key", fullKey).Msg("Failed to release batch lock")
		}
	}
	return release, nil
}

// Close closes the Redis client
func (l *RedisBatchLock) Close() error {
	return l.client.Close()
}
