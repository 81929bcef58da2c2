package catalog_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront/internal/catalog"
	"github.com/noah-isme/storefront/internal/store"
)

const (
	phoneID   = "6f1c1d52-8a3e-4c35-9d0e-0d6a4b0b1a01"
	budsID    = "6f1c1d52-8a3e-4c35-9d0e-0d6a4b0b1a02"
	chargerID = "6f1c1d52-8a3e-4c35-9d0e-0d6a4b0b1a03"
	novelID   = "6f1c1d52-8a3e-4c35-9d0e-0d6a4b0b1a04"
	hiddenID  = "6f1c1d52-8a3e-4c35-9d0e-0d6a4b0b1a05"
	brokenID  = "6f1c1d52-8a3e-4c35-9d0e-0d6a4b0b1a06"
	sellerID  = "0b7d3c1e-9a8f-4d2e-8c1b-7a6e5d4c3b01"
	eventID   = "3c9e2a71-5b4d-4f8e-a1c2-9d8e7f6a5b01"
)

var baseNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func price(rupees int64) *int64 {
	v := rupees * 100
	return &v
}

func text(s string) *string { return &s }

type fakeQueries struct {
	mu        sync.Mutex
	calls     map[string]int
	names     []string
	products  []store.Product
	sellers   map[string]store.Seller
	overrides []store.EventProduct
	banners   []store.Banner
}

func newFakeQueries() *fakeQueries {
	created := baseNow.Add(-90 * 24 * time.Hour)
	products := []store.Product{
		{ID: phoneID, SellerID: sellerID, Title: "Alpha Phone", Brand: "Acme", Category: "Electronics", Subcategory: "Phones",
			RegularPrice: price(999), OriginalPrice: price(1999), Stock: 5, Images: []string{"phone.jpg"},
			Ratings: map[int]int{5: 10, 4: 5}, Authorized: true, CreatedAt: created,
			ShortDescription: "Pocket flagship", DetailedDescription: text("6.5 inch display with a two day battery."),
			Specifications: map[string]any{"ram": "8 GB", "storage": "128 GB"}, Warranty: text("1 year manufacturer warranty"),
			ReplacementReturn: &store.ReplacementReturn{Available: true, Days: 7}, VideoURL: text("https://video.example.test/alpha"),
			Colors: map[string]string{"blue": "phone-blue.jpg", "black": "phone.jpg"}, DeliveryFree: true, CODAvailable: true},
		{ID: budsID, SellerID: sellerID, Title: "Bass Buds", Category: "electronics", Subcategory: "Audio", ShortDescription: "Deep bass earbuds",
			RegularPrice: price(499), Stock: 2, Ratings: map[int]int{5: 30}, Authorized: true, CreatedAt: created},
		{ID: chargerID, SellerID: sellerID, Title: "Charger", Category: "Electronics",
			RegularPrice: price(150), Stock: 9, Ratings: map[int]int{4: 25}, Authorized: true, CreatedAt: created},
		{ID: novelID, SellerID: sellerID, Title: "Novel", Category: "Books", Subcategory: "Fiction",
			OriginalPrice: price(300), Stock: 1, Authorized: true, CreatedAt: baseNow.Add(-24 * time.Hour)},
		{ID: hiddenID, SellerID: sellerID, Title: "Hidden", Category: "Electronics", RegularPrice: price(10), Stock: 1, CreatedAt: created},
		{ID: brokenID, SellerID: sellerID, Title: "Broken", Category: "Electronics", RegularPrice: price(10), Stock: 1,
			Ratings: map[int]int{6: 1}, Authorized: true, CreatedAt: created},
	}
	event := store.Event{ID: eventID, Title: "Monsoon Sale", StartDate: baseNow.Add(-24 * time.Hour), EndDate: baseNow.Add(time.Hour)}
	return &fakeQueries{
		calls:    map[string]int{},
		names:    []string{"Books", "Electronics"},
		products: products,
		sellers:  map[string]store.Seller{sellerID: {ID: sellerID, BusinessName: "Acme Retail", Name: "Asha", Status: "approved", CreatedAt: created}},
		overrides: []store.EventProduct{
			{ID: "ep-1", EventID: eventID, ProductID: phoneID, ShopID: sellerID, EventPrice: 79900, CreatedAt: baseNow.Add(-time.Hour), Event: event},
		},
		banners: []store.Banner{
			{ID: "b1", Title: "Monsoon", ImageURL: "monsoon.jpg", DisplayOrder: 1, IsActive: true},
			{ID: "b2", Title: "Old", ImageURL: "old.jpg", DisplayOrder: 2, IsActive: false},
		},
	}
}

func (f *fakeQueries) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeQueries) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeQueries) ListCategoryNames(context.Context) ([]string, error) {
	f.record("ListCategoryNames")
	return f.names, nil
}

func (f *fakeQueries) ListStorefrontProducts(context.Context) ([]store.Product, error) {
	f.record("ListStorefrontProducts")
	var out []store.Product
	for _, p := range f.products {
		if p.Authorized && p.Stock >= 1 {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeQueries) ListProductsByCategory(_ context.Context, category string) ([]store.Product, error) {
	f.record("ListProductsByCategory")
	var out []store.Product
	for _, p := range f.products {
		if p.Authorized && strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeQueries) GetProduct(_ context.Context, id string) (store.ProductDetail, error) {
	f.record("GetProduct")
	for _, p := range f.products {
		if p.ID == id {
			detail := store.ProductDetail{Product: p}
			if seller, ok := f.sellers[p.SellerID]; ok {
				detail.Seller = &seller
			}
			return detail, nil
		}
	}
	return store.ProductDetail{}, store.ErrNotFound
}

func (f *fakeQueries) ListEventProductsForProducts(_ context.Context, ids []string, now time.Time) ([]store.EventProduct, error) {
	f.record("ListEventProductsForProducts")
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []store.EventProduct
	for _, ep := range f.overrides {
		if wanted[ep.ProductID] && ep.Event.EndDate.After(now) {
			out = append(out, ep)
		}
	}
	return out, nil
}

func (f *fakeQueries) ListFeaturedEventProducts(_ context.Context, now time.Time, limit int) ([]store.FeaturedProduct, error) {
	f.record("ListFeaturedEventProducts")
	var out []store.FeaturedProduct
	for _, ep := range f.overrides {
		if ep.Event.StartDate.After(now) || !ep.Event.EndDate.After(now) {
			continue
		}
		for _, p := range f.products {
			if p.ID == ep.ProductID && p.Authorized {
				out = append(out, store.FeaturedProduct{EventProduct: ep, Product: p})
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeQueries) ListBanners(_ context.Context, activeOnly bool) ([]store.Banner, error) {
	f.record("ListBanners")
	var out []store.Banner
	for _, b := range f.banners {
		if b.IsActive || !activeOnly {
			out = append(out, b)
		}
	}
	return out, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, q *fakeQueries) (*catalog.Service, *catalog.Cache, *clock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := catalog.NewCache(client, time.Minute)
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Queries:        q,
		Cache:          cache,
		HomeCategories: []string{"Electronics", "Books", "Games"},
		FeaturedLimit:  10,
		Logger:         zerolog.Nop(),
	})
	require.NoError(t, err)
	clk := &clock{now: baseNow}
	svc.Now = clk.Now
	return svc, cache, clk
}
