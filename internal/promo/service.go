package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront/internal/common"
	"github.com/noah-isme/storefront/internal/obs"
	"github.com/noah-isme/storefront/internal/pricing"
	"github.com/noah-isme/storefront/internal/store"
)

var (
	// ErrNotFound is returned when an event, enrolment or banner does not exist
	// or is not owned by the caller's shop.
	ErrNotFound = errors.New("promo: not found")
	// ErrDuplicate is returned when a product is already enrolled in the event.
	ErrDuplicate = errors.New("promo: product already enrolled in event")
)

type queryProvider interface {
	ListActiveEvents(ctx context.Context, now time.Time) ([]store.Event, error)
	GetEvent(ctx context.Context, id string) (store.Event, error)
	ListEventProductsByShop(ctx context.Context, shopID string) ([]store.ShopEventProduct, error)
	CreateEventProduct(ctx context.Context, in store.NewEventProduct) (store.EventProduct, error)
	UpdateEventProductPrice(ctx context.Context, id, shopID string, price int64) error
	DeleteEventProduct(ctx context.Context, id, shopID string) error
	ListBanners(ctx context.Context, activeOnly bool) ([]store.Banner, error)
	CreateBanner(ctx context.Context, in store.BannerInput) (store.Banner, error)
	UpdateBanner(ctx context.Context, id string, patch store.BannerPatch) (store.Banner, error)
	SetBannerActive(ctx context.Context, id string, active bool) error
	DeleteBanner(ctx context.Context, id string) error
}

// cachePurger drops storefront snapshots after merchandising writes.
type cachePurger interface {
	Purge(ctx context.Context) error
}

// Service manages sale events, seller enrolments and home banners.
type Service struct {
	queries queryProvider
	cache   cachePurger
	logger  zerolog.Logger
	Now     func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries queryProvider
	Cache   cachePurger
	Logger  zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("promo: queries provider is required")
	}
	return &Service{queries: cfg.Queries, cache: cfg.Cache, logger: cfg.Logger, Now: time.Now}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ActiveEvents lists events that have not ended, including upcoming ones.
func (s *Service) ActiveEvents(ctx context.Context) ([]EventView, error) {
	now := s.now()
	events, err := s.queries.ListActiveEvents(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, toEventView(e, now))
	}
	return out, nil
}

// ListByShop returns the shop's enrolments.
func (s *Service) ListByShop(ctx context.Context, shopID string) ([]ShopEventProduct, error) {
	rows, err := s.queries.ListEventProductsByShop(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("list shop event products: %w", err)
	}
	now := s.now()
	out := make([]ShopEventProduct, 0, len(rows))
	for _, row := range rows {
		out = append(out, ShopEventProduct{
			ShopEventProduct: row,
			DiscountPercent:  pricing.ComputeDiscount(row.EventPrice, row.RegularPrice).Percent,
			Running:          row.Pricing().Window.Active(now),
		})
	}
	return out, nil
}

// Create enrols one of the shop's products in an event that has not ended.
func (s *Service) Create(ctx context.Context, shopID string, req CreateEventProductRequest) (store.EventProduct, error) {
	if err := common.ValidateStruct(req); err != nil {
		return store.EventProduct{}, err
	}
	event, err := s.queries.GetEvent(ctx, req.EventID)
	if err != nil {
		obs.RecordEventProductWrite("create", writeResult(err))
		return store.EventProduct{}, mapStoreError("get event", err)
	}
	if !event.EndDate.After(s.now()) {
		obs.RecordEventProductWrite("create", "rejected")
		return store.EventProduct{}, common.BadRequest("EVENT_ENDED", "event has already ended")
	}
	created, err := s.queries.CreateEventProduct(ctx, store.NewEventProduct{
		EventID:    req.EventID,
		ProductID:  req.ProductID,
		ShopID:     shopID,
		EventPrice: req.EventPrice,
	})
	obs.RecordEventProductWrite("create", writeResult(err))
	if err != nil {
		return store.EventProduct{}, mapStoreError("create event product", err)
	}
	s.purge(ctx)
	return created, nil
}

// UpdatePrice changes the event price of one of the shop's enrolments.
func (s *Service) UpdatePrice(ctx context.Context, shopID, id string, req UpdateEventProductRequest) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: event product %q", ErrNotFound, id)
	}
	if err := common.ValidateStruct(req); err != nil {
		return err
	}
	err := s.queries.UpdateEventProductPrice(ctx, id, shopID, req.EventPrice)
	obs.RecordEventProductWrite("update", writeResult(err))
	if err != nil {
		return mapStoreError("update event product", err)
	}
	s.purge(ctx)
	return nil
}

// Delete withdraws one of the shop's enrolments.
func (s *Service) Delete(ctx context.Context, shopID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: event product %q", ErrNotFound, id)
	}
	err := s.queries.DeleteEventProduct(ctx, id, shopID)
	obs.RecordEventProductWrite("delete", writeResult(err))
	if err != nil {
		return mapStoreError("delete event product", err)
	}
	s.purge(ctx)
	return nil
}

// ActiveBanners lists visible banners in display order.
func (s *Service) ActiveBanners(ctx context.Context) ([]store.Banner, error) {
	banners, err := s.queries.ListBanners(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	if banners == nil {
		banners = []store.Banner{}
	}
	return banners, nil
}

// AllBanners returns one page of every banner for the admin console.
func (s *Service) AllBanners(ctx context.Context, page, perPage int) (BannerPage, error) {
	banners, err := s.queries.ListBanners(ctx, false)
	if err != nil {
		return BannerPage{}, fmt.Errorf("list banners: %w", err)
	}
	meta := common.Pagination{Page: page, PerPage: perPage, TotalItems: len(banners)}
	start, end := meta.Bounds()
	items := make([]store.Banner, 0, end-start)
	items = append(items, banners[start:end]...)
	return BannerPage{Items: items, Pagination: meta}, nil
}

// CreateBanner adds a banner. New banners are active unless stated otherwise.
func (s *Service) CreateBanner(ctx context.Context, req BannerRequest) (store.Banner, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := common.ValidateStruct(req); err != nil {
		return store.Banner{}, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	banner, err := s.queries.CreateBanner(ctx, store.BannerInput{
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		ClickRoute:   req.ClickRoute,
		DisplayOrder: req.DisplayOrder,
		IsActive:     active,
	})
	if err != nil {
		return store.Banner{}, mapStoreError("create banner", err)
	}
	s.purge(ctx)
	return banner, nil
}

// UpdateBanner applies the supplied fields to a banner.
func (s *Service) UpdateBanner(ctx context.Context, id string, req BannerPatchRequest) (store.Banner, error) {
	if _, err := uuid.Parse(id); err != nil {
		return store.Banner{}, fmt.Errorf("%w: banner %q", ErrNotFound, id)
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	if err := common.ValidateStruct(req); err != nil {
		return store.Banner{}, err
	}
	banner, err := s.queries.UpdateBanner(ctx, id, store.BannerPatch{
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		ClickRoute:   req.ClickRoute,
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return store.Banner{}, mapStoreError("update banner", err)
	}
	s.purge(ctx)
	return banner, nil
}

// SetBannerStatus shows or hides a banner.
func (s *Service) SetBannerStatus(ctx context.Context, id string, active bool) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: banner %q", ErrNotFound, id)
	}
	if err := s.queries.SetBannerActive(ctx, id, active); err != nil {
		return mapStoreError("set banner status", err)
	}
	s.purge(ctx)
	return nil
}

// DeleteBanner removes a banner.
func (s *Service) DeleteBanner(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: banner %q", ErrNotFound, id)
	}
	if err := s.queries.DeleteBanner(ctx, id); err != nil {
		return mapStoreError("delete banner", err)
	}
	s.purge(ctx)
	return nil
}

// purge is best effort: snapshots expire on their own TTL if it fails.
func (s *Service) purge(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Purge(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache purge failed")
	}
}

func toEventView(e store.Event, now time.Time) EventView {
	window := pricing.EventWindow{Start: e.StartDate, End: e.EndDate}
	return EventView{
		ID:               e.ID,
		Title:            e.Title,
		StartDate:        e.StartDate,
		EndDate:          e.EndDate,
		Running:          window.Active(now),
		RemainingSeconds: int64(window.Remaining(now) / time.Second),
	}
}

func mapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrReference):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func writeResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrReference):
		return "not_found"
	}
	return "error"
}
