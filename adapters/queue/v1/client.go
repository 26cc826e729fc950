package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/negbuzz/negbuzz/config"
	"github.com/redis/go-redis/v9"
)

// ErrEmptyAddress is returned when Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

const connectionTimeout = 5 * time.Second

// NewClient creates a Redis client and checks the connection.
func NewClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
