package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"archivo-storage-api/config"
)

// Key prefixes shared by the service and the cleanup sweeps.
const (
	KeyURL       = "archivo:url:"
	KeyPendiente = "archivo:pendiente:"
	KeyReporte   = "archivo:reporte:almacenamiento"
)

type Redis struct {
	cli *redis.Client
}

func New(ctx context.Context, logger *zap.Logger, cfg config.Redis, addr string) (*Redis, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("redis connected successfully")

	return &Redis{cli: cli}, nil
}

// Get returns ("", nil) on a miss.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.cli.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (r *Redis) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.cli.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.cli.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *Redis) Close() error { return r.cli.Close() }
