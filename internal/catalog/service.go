package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront/internal/common"
	"github.com/noah-isme/storefront/internal/obs"
	"github.com/noah-isme/storefront/internal/pricing"
	"github.com/noah-isme/storefront/internal/resilience"
	"github.com/noah-isme/storefront/internal/store"
)

// ErrNotFound is returned when a product does not exist or is not listed.
var ErrNotFound = errors.New("catalog: not found")

type queryProvider interface {
	ListCategoryNames(ctx context.Context) ([]string, error)
	ListStorefrontProducts(ctx context.Context) ([]store.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]store.Product, error)
	GetProduct(ctx context.Context, id string) (store.ProductDetail, error)
	ListEventProductsForProducts(ctx context.Context, productIDs []string, now time.Time) ([]store.EventProduct, error)
	ListFeaturedEventProducts(ctx context.Context, now time.Time, limit int) ([]store.FeaturedProduct, error)
	ListBanners(ctx context.Context, activeOnly bool) ([]store.Banner, error)
}

// Service assembles storefront views. Raw rows are cached; every price,
// discount and badge is recomputed from them at request time.
type Service struct {
	queries        queryProvider
	cache          *Cache
	homeCategories []string
	featuredLimit  int
	logger         zerolog.Logger
	Now            func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries        queryProvider
	Cache          *Cache
	HomeCategories []string
	FeaturedLimit  int
	Logger         zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	limit := cfg.FeaturedLimit
	if limit < 1 {
		limit = 20
	}
	return &Service{
		queries:        cfg.Queries,
		cache:          cfg.Cache,
		homeCategories: cfg.HomeCategories,
		featuredLimit:  limit,
		logger:         cfg.Logger,
		Now:            time.Now,
	}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type homeSnapshot struct {
	Banners   []store.Banner          `json:"banners"`
	Products  []store.Product         `json:"products"`
	Featured  []store.FeaturedProduct `json:"featured"`
	Overrides []store.EventProduct    `json:"overrides"`
}

type categorySnapshot struct {
	Products  []store.Product      `json:"products"`
	Overrides []store.EventProduct `json:"overrides"`
}

type productSnapshot struct {
	Detail    store.ProductDetail  `json:"detail"`
	Overrides []store.EventProduct `json:"overrides"`
}

// snapshot returns the cached value for key or loads and caches it. Cache
// failures degrade to a direct load.
func snapshot[T any](ctx context.Context, s *Service, view, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	ok, err := s.cache.GetJSON(ctx, key, &cached)
	switch {
	case errors.Is(err, resilience.ErrOpenCircuit):
		obs.RecordCatalogCache(view, "bypass")
	case err != nil:
		obs.RecordCatalogCache(view, "error")
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	case ok:
		obs.RecordCatalogCache(view, "hit")
		return cached, nil
	default:
		obs.RecordCatalogCache(view, "miss")
	}
	fresh, err := load(ctx)
	if err != nil {
		return fresh, err
	}
	if err := s.cache.SetJSON(ctx, key, fresh); err != nil && !errors.Is(err, resilience.ErrOpenCircuit) {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return fresh, nil
}

// Categories returns category names for navigation.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	names, err := snapshot(ctx, s, "categories", "categories", func(ctx context.Context) ([]string, error) {
		names, err := s.queries.ListCategoryNames(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		return names, nil
	})
	if names == nil && err == nil {
		names = []string{}
	}
	return names, err
}

// Home returns active banners, featured sale products and one shelf per
// configured home category.
func (s *Service) Home(ctx context.Context) (HomePage, error) {
	snap, err := snapshot(ctx, s, "home", "home", s.loadHome)
	if err != nil {
		return HomePage{}, err
	}
	now := s.now()
	overrides := groupOverrides(snap.Overrides)

	page := HomePage{
		Banners:  make([]Banner, 0, len(snap.Banners)),
		Featured: []ProductCard{},
		Shelves:  make([]Shelf, 0, len(s.homeCategories)),
	}
	for _, b := range snap.Banners {
		if b.IsActive {
			page.Banners = append(page.Banners, toBanner(b))
		}
	}

	seen := make(map[string]bool)
	for _, fp := range snap.Featured {
		if len(page.Featured) >= s.featuredLimit {
			break
		}
		if seen[fp.Product.ID] || fp.Product.Stock < 1 {
			continue
		}
		if !fp.EventProduct.Pricing().Window.Active(now) {
			continue
		}
		card, err := buildCard(fp.Product, overrides[fp.Product.ID], now)
		if err != nil {
			s.logger.Warn().Err(err).Str("product_id", fp.Product.ID).Msg("skip featured product")
			continue
		}
		seen[fp.Product.ID] = true
		page.Featured = append(page.Featured, card)
	}

	for _, category := range s.homeCategories {
		shelf := Shelf{Title: category, Products: []ProductCard{}}
		for _, p := range snap.Products {
			if !strings.EqualFold(p.Category, category) {
				continue
			}
			card, err := buildCard(p, overrides[p.ID], now)
			if err != nil {
				s.logger.Warn().Err(err).Str("product_id", p.ID).Msg("skip home product")
				continue
			}
			shelf.Products = append(shelf.Products, card)
		}
		page.Shelves = append(page.Shelves, shelf)
	}
	return page, nil
}

func (s *Service) loadHome(ctx context.Context) (homeSnapshot, error) {
	now := s.now()
	banners, err := s.queries.ListBanners(ctx, true)
	if err != nil {
		return homeSnapshot{}, fmt.Errorf("list banners: %w", err)
	}
	products, err := s.queries.ListStorefrontProducts(ctx)
	if err != nil {
		return homeSnapshot{}, fmt.Errorf("list storefront products: %w", err)
	}
	featured, err := s.queries.ListFeaturedEventProducts(ctx, now, s.featuredLimit)
	if err != nil {
		return homeSnapshot{}, fmt.Errorf("list featured products: %w", err)
	}
	ids := productIDs(products)
	for _, fp := range featured {
		ids = append(ids, fp.Product.ID)
	}
	overrides, err := s.queries.ListEventProductsForProducts(ctx, uniqueStrings(ids), now)
	if err != nil {
		return homeSnapshot{}, fmt.Errorf("list overrides: %w", err)
	}
	return homeSnapshot{Banners: banners, Products: products, Featured: featured, Overrides: overrides}, nil
}

// CategoryPage lists a category's products by title with their unique
// subcategories in first-seen order.
func (s *Service) CategoryPage(ctx context.Context, category string) (CategoryPage, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return CategoryPage{}, common.BadRequest("INVALID_ARGUMENT", "category is required")
	}
	key := "category:" + strings.ToLower(category)
	snap, err := snapshot(ctx, s, "category", key, func(ctx context.Context) (categorySnapshot, error) {
		products, err := s.queries.ListProductsByCategory(ctx, category)
		if err != nil {
			return categorySnapshot{}, fmt.Errorf("list category products: %w", err)
		}
		overrides, err := s.queries.ListEventProductsForProducts(ctx, productIDs(products), s.now())
		if err != nil {
			return categorySnapshot{}, fmt.Errorf("list overrides: %w", err)
		}
		return categorySnapshot{Products: products, Overrides: overrides}, nil
	})
	if err != nil {
		return CategoryPage{}, err
	}

	now := s.now()
	overrides := groupOverrides(snap.Overrides)
	page := CategoryPage{
		Category:      category,
		Subcategories: []string{},
		Sections:      []Shelf{},
		Products:      make([]ProductCard, 0, len(snap.Products)),
	}
	sectionIndex := make(map[string]int)
	for _, p := range snap.Products {
		card, err := buildCard(p, overrides[p.ID], now)
		if err != nil {
			s.logger.Warn().Err(err).Str("product_id", p.ID).Msg("skip category product")
			continue
		}
		page.Products = append(page.Products, card)
		sub := strings.TrimSpace(p.Subcategory)
		if sub == "" {
			continue
		}
		idx, ok := sectionIndex[sub]
		if !ok {
			idx = len(page.Sections)
			sectionIndex[sub] = idx
			page.Subcategories = append(page.Subcategories, sub)
			page.Sections = append(page.Sections, Shelf{Title: sub})
		}
		page.Sections[idx].Products = append(page.Sections[idx].Products, card)
	}
	return page, nil
}

// ProductDetail returns the product page for id.
func (s *Service) ProductDetail(ctx context.Context, id string) (ProductView, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return ProductView{}, fmt.Errorf("%w: product %q", ErrNotFound, id)
	}
	snap, err := snapshot(ctx, s, "product", "product:"+id, func(ctx context.Context) (productSnapshot, error) {
		detail, err := s.queries.GetProduct(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return productSnapshot{}, fmt.Errorf("%w: product %q", ErrNotFound, id)
			}
			return productSnapshot{}, fmt.Errorf("get product: %w", err)
		}
		overrides, err := s.queries.ListEventProductsForProducts(ctx, []string{id}, s.now())
		if err != nil {
			return productSnapshot{}, fmt.Errorf("list overrides: %w", err)
		}
		return productSnapshot{Detail: detail, Overrides: overrides}, nil
	})
	if err != nil {
		return ProductView{}, err
	}
	p := snap.Detail.Product
	if !p.Authorized {
		return ProductView{}, fmt.Errorf("%w: product %q", ErrNotFound, id)
	}

	now := s.now()
	card, err := buildCard(p, store.PricingOverrides(snap.Overrides), now)
	if err != nil {
		return ProductView{}, fmt.Errorf("price product %s: %w", p.ID, err)
	}
	breakdown, err := pricing.RatingBreakdown(p.Ratings)
	if err != nil {
		return ProductView{}, fmt.Errorf("rating breakdown %s: %w", p.ID, err)
	}
	summary, err := pricing.AggregateRatings(p.Ratings, p.CreatedAt, now)
	if err != nil {
		return ProductView{}, fmt.Errorf("aggregate ratings %s: %w", p.ID, err)
	}
	view := ProductView{
		ProductCard:      card,
		ShortDescription: p.ShortDescription,
		Images:           nonNilStrings(p.Images),
		Tags:             nonNilStrings(p.Tags),
		Stock:            p.Stock,
		IsNew:            summary.IsNew,
		RatingBreakdown:  breakdown,
		Description:      p.ShortDescription,
		Specifications:   p.Specifications,
		Warranty:         nonBlank(p.Warranty),
		VideoURL:         nonBlank(p.VideoURL),
		Colors:           p.Colors,
		Gallery:          gallery(p.Images, p.Colors),
		DeliveryFree:     p.DeliveryFree,
		CODAvailable:     p.CODAvailable,
	}
	if d := nonBlank(p.DetailedDescription); d != nil {
		view.Description = *d
	}
	if view.Specifications == nil {
		view.Specifications = map[string]any{}
	}
	if view.Colors == nil {
		view.Colors = map[string]string{}
	}
	if rr := p.ReplacementReturn; rr != nil {
		view.ReturnPolicy = &ReturnPolicy{Available: rr.Available}
		if rr.Available && rr.Days > 0 {
			view.ReturnPolicy.Days = rr.Days
		}
	}
	if seller := snap.Detail.Seller; seller != nil {
		view.Seller = &Seller{
			ID:           seller.ID,
			BusinessName: seller.BusinessName,
			Name:         seller.Name,
			Status:       seller.Status,
			Since:        seller.CreatedAt,
		}
	}
	if ep := pricing.SelectEventProduct(store.PricingOverrides(snap.Overrides), now); ep != nil {
		sale := &Sale{
			EventID:          ep.EventID,
			EventPrice:       ep.EventPrice,
			EndsAt:           ep.Window.End,
			RemainingSeconds: int64(ep.Window.Remaining(now) / time.Second),
		}
		for _, row := range snap.Overrides {
			if row.ID == ep.ID {
				sale.EventTitle = row.Event.Title
				break
			}
		}
		view.Sale = sale
	}
	return view, nil
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func gallery(images []string, colors map[string]string) []string {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)
	candidates := append([]string(nil), images...)
	for _, name := range names {
		candidates = append(candidates, colors[name])
	}
	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, img := range candidates {
		if strings.TrimSpace(img) == "" {
			continue
		}
		if _, dup := seen[img]; dup {
			continue
		}
		seen[img] = struct{}{}
		out = append(out, img)
	}
	return out
}

// buildCard prices p at now against its candidate overrides.
func buildCard(p store.Product, overrides []pricing.EventProduct, now time.Time) (ProductCard, error) {
	pp := p.Pricing()
	summary, err := pricing.AggregateRatings(pp.Ratings, pp.CreatedAt, now)
	if err != nil {
		return ProductCard{}, err
	}
	ep := pricing.SelectEventProduct(overrides, now)
	price := pricing.ResolveEffectivePrice(pp, ep, now)
	discount := pricing.ComputeDiscount(price, pp.OriginalPrice)

	card := ProductCard{
		ID:              p.ID,
		Title:           p.Title,
		Brand:           p.Brand,
		Category:        p.Category,
		Subcategory:     p.Subcategory,
		Price:           price,
		DiscountPercent: discount.Percent,
		Savings:         discount.Savings,
		Rating:          Rating{Average: summary.Average, Total: summary.Total},
		InStock:         p.Stock >= 1,
		Badges:          []string{},
	}
	if len(p.Images) > 0 {
		image := p.Images[0]
		card.Image = &image
	}
	if discount.Savings > 0 {
		compareAt := *pp.OriginalPrice
		card.CompareAt = &compareAt
	}
	if summary.IsNew {
		card.Badges = append(card.Badges, BadgeNew)
	}
	if ep != nil {
		card.Badges = append(card.Badges, BadgeSale)
		endsAt := ep.Window.End
		card.SaleEndsAt = &endsAt
	}
	return card, nil
}

func groupOverrides(rows []store.EventProduct) map[string][]pricing.EventProduct {
	out := make(map[string][]pricing.EventProduct)
	for _, row := range rows {
		out[row.ProductID] = append(out[row.ProductID], row.Pricing())
	}
	return out
}

func toBanner(b store.Banner) Banner {
	return Banner{ID: b.ID, Title: b.Title, Description: b.Description, ImageURL: b.ImageURL, ClickRoute: b.ClickRoute}
}

func productIDs(products []store.Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
