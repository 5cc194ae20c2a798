package flags

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

// Redis reads flags stored as strings under {prefix}flags:{name}
type Redis struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

// NewRedis returns a flag source on a new Redis client. An unreachable
// server is logged, not fatal: reads fail until it comes back and callers
// fall back to their default.
func NewRedis(addr, password, prefix string, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis flag source unreachable, flag reads will fail until it recovers",
			zap.String("addr", addr),
			zap.Error(err))
	}

	return NewRedisWithClient(client, prefix, logger)
}

// NewRedisWithClient returns a flag source on an existing client
func NewRedisWithClient(client redis.UniversalClient, prefix string, logger *zap.Logger) *Redis {
	return &Redis{client: client, prefix: prefix, logger: logger}
}

// Bool reads and parses a flag. A missing key is false.
func (r *Redis) Bool(ctx context.Context, name string) (bool, error) {
	key := r.prefix + "flags:" + name

	raw, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		r.logger.Debug("Flag not set", zap.String("key", key))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read flag %s: %w", name, err)
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("flag %s has non-boolean value %q", name, raw)
	}
	return value, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	return r.client.Close()
}
