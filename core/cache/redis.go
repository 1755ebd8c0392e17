package cache

import (
	"context"
	"fmt"

	"calendar-sync-api/core/constants"
	"calendar-sync-api/core/logger"

	"github.com/redis/go-redis/v9"
)

// Cache is the ephemeral key store. OAuth state tokens live here with a TTL
// so abandoned connect flows clean themselves up.
type Cache interface {
	// SaveOAuthState binds a freshly generated state token to the user who
	// initiated the connect flow.
	SaveOAuthState(ctx context.Context, state string, userID string) error

	// TakeOAuthState atomically fetches and deletes the state binding. The
	// stored value is gone after this call whether or not the caller accepts
	// it — single-use by construction. Returns ("", nil) when the state is
	// unknown or expired.
	TakeOAuthState(ctx context.Context, state string) (string, error)

	Ping(ctx context.Context) error
	Close() error
}

type redisCache struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisCache(cfg RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis initialized successfully", "addr", cfg.Addr, "db", cfg.DB)
	return &redisCache{client: client}, nil
}

func (c *redisCache) SaveOAuthState(ctx context.Context, state string, userID string) error {
	key := constants.RedisKeyOAuthState + state
	if err := c.client.Set(ctx, key, userID, constants.OAuthStateTTL).Err(); err != nil {
		logger.Error("Cache:SaveOAuthState:Error", "error", err)
		return err
	}
	return nil
}

func (c *redisCache) TakeOAuthState(ctx context.Context, state string) (string, error) {
	key := constants.RedisKeyOAuthState + state
	val, err := c.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		logger.Error("Cache:TakeOAuthState:Error", "error", err)
		return "", err
	}
	return val, nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
