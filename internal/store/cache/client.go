package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scirec/provisioner/pkg/config"
	"github.com/scirec/provisioner/pkg/logger"
)

// Client covers the cache store in the provisioning run. Redis holds no
// declared schema, so the only real structure is its keyspace: idempotent
// provisioning is a no-op and a destructive run flushes it.
type Client struct {
	client *redis.Client
}

const keyspace = "keyspace"

func NewClient(cfg config.RedisConfig) *Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	logger.Info("Redis client initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
	)

	return &Client{client: client}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Kind() string {
	return "redis"
}

func (c *Client) CheckReady(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Structures() []string {
	return []string{keyspace}
}

// Has always reports the keyspace as present: it exists as soon as the
// server answers.
func (c *Client) Has(ctx context.Context, name string) (bool, error) {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return false, fmt.Errorf("redis ping: %w", err)
	}
	return true, nil
}

func (c *Client) Create(ctx context.Context, name string) error {
	return nil
}

func (c *Client) Drop(ctx context.Context, name string) error {
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("failed to flush redis db: %w", err)
	}
	logger.Warn("Redis keyspace flushed")
	return nil
}

func (c *Client) Count(ctx context.Context, name string) (int64, error) {
	n, err := c.client.DBSize(ctx).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read keyspace size: %w", err)
	}
	return n, nil
}
