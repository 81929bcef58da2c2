package cart_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront/internal/cart"
	"github.com/noah-isme/storefront/internal/lock"
	"github.com/noah-isme/storefront/internal/store"
)

const (
	userID    = "9a1b2c3d-4e5f-4a6b-8c7d-0e1f2a3b4c01"
	phoneID   = "6f1c1d52-8a3e-4c35-9d0e-0d6a4b0b1a01"
	cableID   = "6f1c1d52-8a3e-4c35-9d0e-0d6a4b0b1a02"
	soldOutID = "6f1c1d52-8a3e-4c35-9d0e-0d6a4b0b1a03"
	hiddenID  = "6f1c1d52-8a3e-4c35-9d0e-0d6a4b0b1a04"
	eventID   = "3c9e2a71-5b4d-4f8e-a1c2-9d8e7f6a5b01"
)

var baseNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func price(rupees int64) *int64 {
	v := rupees * 100
	return &v
}

type fakeQueries struct {
	mu        sync.Mutex
	products  map[string]store.Product
	overrides []store.EventProduct
	lines     map[string]store.CartLine
	writes    int
}

func newFakeQueries() *fakeQueries {
	created := baseNow.Add(-90 * 24 * time.Hour)
	products := map[string]store.Product{
		phoneID: {ID: phoneID, Title: "Alpha Phone", RegularPrice: price(999), OriginalPrice: price(1999),
			Stock: 3, Images: []string{"phone.jpg"}, Authorized: true, CreatedAt: created},
		cableID:   {ID: cableID, Title: "Cable", RegularPrice: price(150), Stock: 10, Authorized: true, CreatedAt: created},
		soldOutID: {ID: soldOutID, Title: "Sold Out", RegularPrice: price(50), Stock: 0, Authorized: true, CreatedAt: created},
		hiddenID:  {ID: hiddenID, Title: "Hidden", RegularPrice: price(50), Stock: 5, CreatedAt: created},
	}
	event := store.Event{ID: eventID, Title: "Monsoon Sale", StartDate: baseNow.Add(-24 * time.Hour), EndDate: baseNow.Add(time.Hour)}
	return &fakeQueries{
		products: products,
		overrides: []store.EventProduct{
			{ID: "ep-1", EventID: eventID, ProductID: phoneID, EventPrice: 89900, CreatedAt: baseNow.Add(-time.Hour), Event: event},
		},
		lines: map[string]store.CartLine{},
	}
}

func (f *fakeQueries) put(productID string, qty int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.lines[id] = store.CartLine{ID: id, UserID: userID, ProductID: productID, Quantity: qty,
		CreatedAt: baseNow.Add(time.Duration(len(f.lines)) * time.Second), Product: f.products[productID]}
	return id
}

func (f *fakeQueries) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeQueries) ListCartLines(_ context.Context, uid string, now time.Time) ([]store.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.CartLine
	for _, line := range f.lines {
		if line.UserID != uid {
			continue
		}
		line.Product = f.products[line.ProductID]
		for _, ep := range f.overrides {
			if ep.ProductID == line.ProductID && ep.Event.EndDate.After(now) {
				line.Overrides = append(line.Overrides, ep)
			}
		}
		out = append(out, line)
	}
	sortLines(out)
	return out, nil
}

func sortLines(lines []store.CartLine) {
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && lines[j].CreatedAt.Before(lines[j-1].CreatedAt); j-- {
			lines[j], lines[j-1] = lines[j-1], lines[j]
		}
	}
}

func (f *fakeQueries) GetCartLine(_ context.Context, uid, itemID string) (store.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	line, ok := f.lines[itemID]
	if !ok || line.UserID != uid {
		return store.CartLine{}, store.ErrNotFound
	}
	line.Product = f.products[line.ProductID]
	return line, nil
}

func (f *fakeQueries) FindCartLineByProduct(_ context.Context, uid, productID string) (store.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, line := range f.lines {
		if line.UserID == uid && line.ProductID == productID {
			return line, nil
		}
	}
	return store.CartLine{}, store.ErrNotFound
}

func (f *fakeQueries) GetProduct(_ context.Context, id string) (store.ProductDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return store.ProductDetail{}, store.ErrNotFound
	}
	return store.ProductDetail{Product: p}, nil
}

func (f *fakeQueries) UpsertCartLine(_ context.Context, uid, productID string, qty int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	for id, line := range f.lines {
		if line.UserID == uid && line.ProductID == productID {
			line.Quantity = qty
			f.lines[id] = line
			return id, nil
		}
	}
	id := uuid.NewString()
	f.lines[id] = store.CartLine{ID: id, UserID: uid, ProductID: productID, Quantity: qty,
		CreatedAt: baseNow.Add(time.Duration(len(f.lines)) * time.Second)}
	return id, nil
}

func (f *fakeQueries) UpdateCartQuantity(_ context.Context, uid, itemID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	line, ok := f.lines[itemID]
	if !ok || line.UserID != uid {
		return store.ErrNotFound
	}
	f.writes++
	line.Quantity = qty
	f.lines[itemID] = line
	return nil
}

func (f *fakeQueries) DeleteCartLine(_ context.Context, uid, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	line, ok := f.lines[itemID]
	if !ok || line.UserID != uid {
		return store.ErrNotFound
	}
	f.writes++
	delete(f.lines, itemID)
	return nil
}

func newTestService(t *testing.T, q *fakeQueries) *cart.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := cart.NewService(cart.ServiceConfig{
		Queries: q,
		Locker:  lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond, MaxWait: time.Second},
		LockTTL: time.Second,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	svc.Now = func() time.Time { return baseNow }
	return svc
}
