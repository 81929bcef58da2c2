package store

import (
	"context"
	"time"
)

// ListActiveEvents returns events that have not ended at now, earliest start first.
func (s *Store) ListActiveEvents(ctx context.Context, now time.Time) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, title, start_date, end_date
		FROM events
		WHERE end_date > $1
		ORDER BY start_date, id`, now)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Title, &e.StartDate, &e.EndDate); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetEvent loads a single event.
func (s *Store) GetEvent(ctx context.Context, id string) (Event, error) {
	var e Event
	err := s.db.QueryRow(ctx, `
		SELECT id::text, title, start_date, end_date FROM events WHERE id = $1::uuid`, id).
		Scan(&e.ID, &e.Title, &e.StartDate, &e.EndDate)
	if err != nil {
		return Event{}, mapError(err)
	}
	return e, nil
}

// ListEventProductsByShop returns a shop's enrolments, newest first.
func (s *Store) ListEventProductsByShop(ctx context.Context, shopID string) ([]ShopEventProduct, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+eventProductColumns+`, p.title, p.regular_price, COALESCE(p.images, '{}')
		FROM event_products ep
		JOIN events e ON e.id = ep.event_id
		JOIN products p ON p.id = ep.product_id
		WHERE ep.shop_id = $1::uuid
		ORDER BY ep.created_at DESC, ep.id`, shopID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []ShopEventProduct
	for rows.Next() {
		var row ShopEventProduct
		dest := append(eventProductDest(&row.EventProduct), &row.ProductTitle, &row.RegularPrice, &row.Images)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CreateEventProduct enrols one of the shop's products in an event. A product
// not owned by the shop yields ErrNotFound; a second enrolment of the same
// product in the same event yields ErrDuplicate.
func (s *Store) CreateEventProduct(ctx context.Context, in NewEventProduct) (EventProduct, error) {
	var ep EventProduct
	err := s.db.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO event_products (event_id, product_id, shop_id, event_price)
			SELECT $1::uuid, p.id, p.seller_id, $4
			FROM products p
			WHERE p.id = $2::uuid AND p.seller_id = $3::uuid
			RETURNING id, event_id, product_id, shop_id, event_price, created_at
		)
		SELECT ins.id::text, ins.event_id::text, ins.product_id::text, ins.shop_id::text,
			ins.event_price, ins.created_at, e.id::text, e.title, e.start_date, e.end_date
		FROM ins
		JOIN events e ON e.id = ins.event_id`,
		in.EventID, in.ProductID, in.ShopID, in.EventPrice).Scan(eventProductDest(&ep)...)
	if err != nil {
		return EventProduct{}, mapError(err)
	}
	return ep, nil
}

// UpdateEventProductPrice changes the override price of a shop's enrolment.
func (s *Store) UpdateEventProductPrice(ctx context.Context, id, shopID string, price int64) error {
	return affectedOne(s.db.Exec(ctx, `
		UPDATE event_products SET event_price = $3
		WHERE id = $1::uuid AND shop_id = $2::uuid`, id, shopID, price))
}

// DeleteEventProduct removes a shop's enrolment.
func (s *Store) DeleteEventProduct(ctx context.Context, id, shopID string) error {
	return affectedOne(s.db.Exec(ctx, `
		DELETE FROM event_products WHERE id = $1::uuid AND shop_id = $2::uuid`, id, shopID))
}

const bannerColumns = `id::text, title, description, image_url, click_route, display_order, is_active, created_at, updated_at`

func bannerDest(b *Banner) []any {
	return []any{&b.ID, &b.Title, &b.Description, &b.ImageURL, &b.ClickRoute, &b.DisplayOrder, &b.IsActive, &b.CreatedAt, &b.UpdatedAt}
}

// ListBanners returns banners by display order, optionally only active ones.
func (s *Store) ListBanners(ctx context.Context, activeOnly bool) ([]Banner, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bannerColumns+`
		FROM banners
		WHERE is_active OR NOT $1
		ORDER BY display_order, created_at, id`, activeOnly)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []Banner
	for rows.Next() {
		var b Banner
		if err := rows.Scan(bannerDest(&b)...); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBanner inserts a banner.
func (s *Store) CreateBanner(ctx context.Context, in BannerInput) (Banner, error) {
	var b Banner
	err := s.db.QueryRow(ctx, `
		INSERT INTO banners (title, description, image_url, click_route, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+bannerColumns,
		in.Title, in.Description, in.ImageURL, in.ClickRoute, in.DisplayOrder, in.IsActive).Scan(bannerDest(&b)...)
	if err != nil {
		return Banner{}, mapError(err)
	}
	return b, nil
}

// UpdateBanner applies the non-nil fields of patch.
func (s *Store) UpdateBanner(ctx context.Context, id string, patch BannerPatch) (Banner, error) {
	var b Banner
	err := s.db.QueryRow(ctx, `
		UPDATE banners SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			image_url = COALESCE($4, image_url),
			click_route = COALESCE($5, click_route),
			display_order = COALESCE($6, display_order),
			is_active = COALESCE($7, is_active),
			updated_at = now()
		WHERE id = $1::uuid
		RETURNING `+bannerColumns,
		id, patch.Title, patch.Description, patch.ImageURL, patch.ClickRoute, patch.DisplayOrder, patch.IsActive).Scan(bannerDest(&b)...)
	if err != nil {
		return Banner{}, mapError(err)
	}
	return b, nil
}

// SetBannerActive toggles a banner's visibility.
func (s *Store) SetBannerActive(ctx context.Context, id string, active bool) error {
	return affectedOne(s.db.Exec(ctx, `
		UPDATE banners SET is_active = $2, updated_at = now() WHERE id = $1::uuid`, id, active))
}

// DeleteBanner removes a banner.
func (s *Store) DeleteBanner(ctx context.Context, id string) error {
	return affectedOne(s.db.Exec(ctx, `DELETE FROM banners WHERE id = $1::uuid`, id))
}
