package health

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// Probe checks the storefront's Postgres pool and Redis client.
type Probe struct {
	DB    *pgxpool.Pool
	Redis redis.UniversalClient
}

// PingDB pings Postgres within timeout.
func (p Probe) PingDB(ctx context.Context, timeout time.Duration) error {
	if p.DB == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.DB.Ping(ctx)
}

// PingRedis pings Redis within timeout.
func (p Probe) PingRedis(ctx context.Context, timeout time.Duration) error {
	if p.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Redis.Ping(ctx).Err()
}
