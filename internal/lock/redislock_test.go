package lock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront/internal/lock"
)

func TestWithLockSerialisesLineUpdates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := lock.Locker{R: client, RetryBackoff: 2 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Each writer reads the quantity, yields, then writes it back plus one.
	// Without mutual exclusion the yields interleave and updates are lost.
	var (
		mu       sync.Mutex
		quantity int
		inside   int
		overlap  bool
	)
	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- locker.WithLock(ctx, lock.Key("cart", "u1", "line-1"), time.Second, func(context.Context) error {
				mu.Lock()
				inside++
				overlap = overlap || inside > 1
				current := quantity
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				quantity = current + 1
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.False(t, overlap, "two holders ran the critical section at once")
	require.Equal(t, writers, quantity)
	require.False(t, mr.Exists(lock.Key("cart", "u1", "line-1")))
}

func TestWithLockReturnsBusyAfterMaxWait(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	key := lock.Key("cart", "u1", "item-1")
	require.NoError(t, mr.Set(key, "someone-else"))

	locker := lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond, MaxWait: 20 * time.Millisecond}
	called := false
	err := locker.WithLock(context.Background(), key, time.Second, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, lock.ErrBusy)
	require.False(t, called)

	value, err := mr.Get(key)
	require.NoError(t, err)
	require.Equal(t, "someone-else", value, "a foreign holder must not be released")
}

func TestWithLockReleasesAfterError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := lock.Locker{R: client}
	boom := errors.New("boom")
	err := locker.WithLock(context.Background(), lock.Key("cart", "u1", "item-2"), time.Second, func(context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists(lock.Key("cart", "u1", "item-2")))
}
