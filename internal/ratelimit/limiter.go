package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Decision is the outcome of a single limiter check.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Limiter is a fixed window counter shared across API replicas through Redis.
type Limiter struct {
	lim *limiter.Limiter
}

// New builds a Limiter from a rate such as "60-M" (60 per minute). Keys are
// stored under prefix.
func New(client redis.UniversalClient, prefix, rate string) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("ratelimit: redis client is required")
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", rate, err)
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return &Limiter{lim: limiter.New(store, parsed)}, nil
}

// Allow counts one hit against key.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := l.lim.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Limit:     res.Limit,
		Remaining: res.Remaining,
		ResetAt:   time.Unix(res.Reset, 0),
	}, nil
}
