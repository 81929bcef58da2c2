package promo_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront/internal/promo"
	"github.com/noah-isme/storefront/internal/store"
)

const (
	shopID      = "0b7d3c1e-9a8f-4d2e-8c1b-7a6e5d4c3b01"
	otherShopID = "0b7d3c1e-9a8f-4d2e-8c1b-7a6e5d4c3b02"
	phoneID     = "6f1c1d52-8a3e-4c35-9d0e-0d6a4b0b1a01"
	runningID   = "3c9e2a71-5b4d-4f8e-a1c2-9d8e7f6a5b01"
	upcomingID  = "3c9e2a71-5b4d-4f8e-a1c2-9d8e7f6a5b02"
	endedID     = "3c9e2a71-5b4d-4f8e-a1c2-9d8e7f6a5b03"
)

var baseNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeQueries struct {
	mu        sync.Mutex
	events    map[string]store.Event
	owners    map[string]string
	regular   map[string]int64
	enrolment map[string]store.EventProduct
	banners   []store.Banner
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		events: map[string]store.Event{
			runningID:  {ID: runningID, Title: "Monsoon Sale", StartDate: baseNow.Add(-time.Hour), EndDate: baseNow.Add(90 * time.Minute)},
			upcomingID: {ID: upcomingID, Title: "Diwali Sale", StartDate: baseNow.Add(48 * time.Hour), EndDate: baseNow.Add(72 * time.Hour)},
			endedID:    {ID: endedID, Title: "Summer Sale", StartDate: baseNow.Add(-72 * time.Hour), EndDate: baseNow},
		},
		owners:    map[string]string{phoneID: shopID},
		regular:   map[string]int64{phoneID: 100000},
		enrolment: map[string]store.EventProduct{},
	}
}

func (f *fakeQueries) ListActiveEvents(_ context.Context, now time.Time) ([]store.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Event
	for _, e := range f.events {
		if e.EndDate.After(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (f *fakeQueries) GetEvent(_ context.Context, id string) (store.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return store.Event{}, store.ErrNotFound
	}
	return e, nil
}

func (f *fakeQueries) ListEventProductsByShop(_ context.Context, shop string) ([]store.ShopEventProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.ShopEventProduct
	for _, ep := range f.enrolment {
		if ep.ShopID != shop {
			continue
		}
		regular := f.regular[ep.ProductID]
		out = append(out, store.ShopEventProduct{EventProduct: ep, ProductTitle: "Alpha Phone", RegularPrice: &regular})
	}
	return out, nil
}

func (f *fakeQueries) CreateEventProduct(_ context.Context, in store.NewEventProduct) (store.EventProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owners[in.ProductID] != in.ShopID {
		return store.EventProduct{}, store.ErrNotFound
	}
	for _, ep := range f.enrolment {
		if ep.EventID == in.EventID && ep.ProductID == in.ProductID {
			return store.EventProduct{}, store.ErrDuplicate
		}
	}
	ep := store.EventProduct{ID: uuid.NewString(), EventID: in.EventID, ProductID: in.ProductID, ShopID: in.ShopID,
		EventPrice: in.EventPrice, CreatedAt: baseNow, Event: f.events[in.EventID]}
	f.enrolment[ep.ID] = ep
	return ep, nil
}

func (f *fakeQueries) UpdateEventProductPrice(_ context.Context, id, shop string, price int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ep, ok := f.enrolment[id]
	if !ok || ep.ShopID != shop {
		return store.ErrNotFound
	}
	ep.EventPrice = price
	f.enrolment[id] = ep
	return nil
}

func (f *fakeQueries) DeleteEventProduct(_ context.Context, id, shop string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ep, ok := f.enrolment[id]
	if !ok || ep.ShopID != shop {
		return store.ErrNotFound
	}
	delete(f.enrolment, id)
	return nil
}

func (f *fakeQueries) ListBanners(_ context.Context, activeOnly bool) ([]store.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Banner
	for _, b := range f.banners {
		if b.IsActive || !activeOnly {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeQueries) CreateBanner(_ context.Context, in store.BannerInput) (store.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := store.Banner{ID: uuid.NewString(), Title: in.Title, Description: in.Description, ImageURL: in.ImageURL,
		ClickRoute: in.ClickRoute, DisplayOrder: in.DisplayOrder, IsActive: in.IsActive, CreatedAt: baseNow, UpdatedAt: baseNow}
	f.banners = append(f.banners, b)
	return b, nil
}

func (f *fakeQueries) UpdateBanner(_ context.Context, id string, patch store.BannerPatch) (store.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.banners {
		if b.ID != id {
			continue
		}
		if patch.Title != nil {
			b.Title = *patch.Title
		}
		if patch.ImageURL != nil {
			b.ImageURL = *patch.ImageURL
		}
		if patch.DisplayOrder != nil {
			b.DisplayOrder = *patch.DisplayOrder
		}
		if patch.IsActive != nil {
			b.IsActive = *patch.IsActive
		}
		f.banners[i] = b
		return b, nil
	}
	return store.Banner{}, store.ErrNotFound
}

func (f *fakeQueries) SetBannerActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.banners {
		if f.banners[i].ID == id {
			f.banners[i].IsActive = active
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeQueries) DeleteBanner(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.banners {
		if f.banners[i].ID == id {
			f.banners = append(f.banners[:i], f.banners[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type countingPurger struct {
	mu    sync.Mutex
	count int
}

func (p *countingPurger) Purge(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	return nil
}

func (p *countingPurger) purges() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func newTestService(t *testing.T, q *fakeQueries) (*promo.Service, *countingPurger) {
	t.Helper()
	purger := &countingPurger{}
	svc, err := promo.NewService(promo.ServiceConfig{Queries: q, Cache: purger, Logger: zerolog.Nop()})
	require.NoError(t, err)
	svc.Now = func() time.Time { return baseNow }
	return svc, purger
}
