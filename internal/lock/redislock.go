package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrBusy is returned when the lock is still held by another caller after MaxWait.
var ErrBusy = errors.New("lock: busy")

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

var waitHistogram, _ = otel.Meter("github.com/noah-isme/storefront/internal/lock").Float64Histogram(
	"lock.wait.duration",
	metric.WithUnit("ms"),
	metric.WithDescription("Time spent waiting to acquire a line lock."),
)

// Locker provides a Redis-backed mutual exclusion lock keyed by resource.
type Locker struct {
	R            redis.UniversalClient
	RetryBackoff time.Duration
	// MaxWait bounds how long WithLock polls for a held lock. Zero waits
	// until the context is done.
	MaxWait time.Duration
}

// Key builds a namespaced lock key from its parts.
func Key(parts ...string) string {
	return "lock:" + strings.Join(parts, ":")
}

// WithLock executes fn while holding a lock for the provided key. The lock is
// released automatically even if fn returns an error, and only by the holder
// that acquired it.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	var deadline time.Time
	if l.MaxWait > 0 {
		deadline = time.Now().Add(l.MaxWait)
	}
	token := uuid.NewString()
	started := time.Now()

	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			recordWait(ctx, started, true)
			defer l.release(context.WithoutCancel(ctx), key, token)
			return fn(ctx)
		}
		if !deadline.IsZero() && time.Now().Add(retry).After(deadline) {
			recordWait(ctx, started, false)
			return fmt.Errorf("%w: %s", ErrBusy, key)
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l Locker) release(ctx context.Context, key, token string) {
	if err := l.R.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.R.Del(ctx, key).Err()
		}
	}
}

func recordWait(ctx context.Context, started time.Time, acquired bool) {
	if waitHistogram == nil {
		return
	}
	elapsed := float64(time.Since(started)) / float64(time.Millisecond)
	waitHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.Bool("acquired", acquired)))
}
