package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLockTTL bounds how long a crashed holder can block a folder
const DefaultLockTTL = 30 * time.Second

// releaseScript deletes the key only when this owner still holds it
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisManager implements shared locking with SET NX and an owner token
type RedisManager struct {
	client  redis.UniversalClient
	logger  *zap.Logger
	ttl     time.Duration
	prefix  string
	ownerID string
}

// NewRedisManager connects to Redis and creates a lock manager
func NewRedisManager(redisAddr, redisPassword string, logger *zap.Logger) (*RedisManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Password:     redisPassword,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisManagerWithClient(client, logger), nil
}

// NewRedisManagerWithClient creates a lock manager on an existing client
func NewRedisManagerWithClient(client redis.UniversalClient, logger *zap.Logger) *RedisManager {
	return &RedisManager{
		client:  client,
		logger:  logger,
		ttl:     DefaultLockTTL,
		prefix:  "imagedeck:lock:",
		ownerID: uuid.NewString(),
	}
}

// Acquire attempts to take the lock for the given key
func (m *RedisManager) Acquire(ctx context.Context, key string) (bool, error) {
	lockKey := m.prefix + key

	acquired, err := m.client.SetNX(ctx, lockKey, m.ownerID, m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock for key %s: %w", key, err)
	}

	if acquired {
		m.logger.Debug("Lock acquired",
			zap.String("key", key),
			zap.String("owner", m.ownerID),
			zap.Duration("ttl", m.ttl))
	} else {
		m.logger.Debug("Lock already held", zap.String("key", key))
	}

	return acquired, nil
}

// Release frees the lock if this manager still owns it
func (m *RedisManager) Release(ctx context.Context, key string) error {
	lockKey := m.prefix + key

	deleted, err := releaseScript.Run(ctx, m.client, []string{lockKey}, m.ownerID).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock for key %s: %w", key, err)
	}

	if deleted == 1 {
		m.logger.Debug("Lock released",
			zap.String("key", key),
			zap.String("owner", m.ownerID))
	} else {
		m.logger.Debug("Lock not owned or already expired",
			zap.String("key", key),
			zap.String("owner", m.ownerID))
	}

	return nil
}

// Close closes the Redis client connection
func (m *RedisManager) Close() error {
	return m.client.Close()
}
