package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const productColumns = `p.id::text, p.seller_id::text, p.title, p.brand, p.category, p.subcategory,
	p.short_description, p.regular_price, p.original_price, p.stock,
	COALESCE(p.images, '{}'), COALESCE(p.tags, '{}'), COALESCE(p.ratings, '{}'::jsonb),
	p.authorized_by_platform, p.created_at,
	p.detailed_description, COALESCE(p.specifications, '{}'::jsonb), p.warranty,
	p.replacement_return, p.video_url, COALESCE(p.colors, '{}'::jsonb),
	p.delivery_free, p.cod_available`

const sellerColumns = `s.id::text, s.business_name, s.name, s.status, s.created_at`

const eventProductColumns = `ep.id::text, ep.event_id::text, ep.product_id::text, ep.shop_id::text,
	ep.event_price, ep.created_at, e.id::text, e.title, e.start_date, e.end_date`

func productDest(p *Product) []any {
	return []any{
		&p.ID, &p.SellerID, &p.Title, &p.Brand, &p.Category, &p.Subcategory,
		&p.ShortDescription, &p.RegularPrice, &p.OriginalPrice, &p.Stock,
		&p.Images, &p.Tags, &p.Ratings,
		&p.Authorized, &p.CreatedAt,
		&p.DetailedDescription, &p.Specifications, &p.Warranty,
		&p.ReplacementReturn, &p.VideoURL, &p.Colors,
		&p.DeliveryFree, &p.CODAvailable,
	}
}

func eventProductDest(ep *EventProduct) []any {
	return []any{
		&ep.ID, &ep.EventID, &ep.ProductID, &ep.ShopID,
		&ep.EventPrice, &ep.CreatedAt, &ep.Event.ID, &ep.Event.Title, &ep.Event.StartDate, &ep.Event.EndDate,
	}
}

// nullableSeller receives LEFT JOINed seller columns.
type nullableSeller struct {
	id, businessName, name, status *string
	createdAt                      *time.Time
}

func (s *nullableSeller) dest() []any {
	return []any{&s.id, &s.businessName, &s.name, &s.status, &s.createdAt}
}

func (s nullableSeller) seller() *Seller {
	if s.id == nil {
		return nil
	}
	out := &Seller{ID: *s.id}
	if s.businessName != nil {
		out.BusinessName = *s.businessName
	}
	if s.name != nil {
		out.Name = *s.name
	}
	if s.status != nil {
		out.Status = *s.status
	}
	if s.createdAt != nil {
		out.CreatedAt = *s.createdAt
	}
	return out
}

func collectProducts(rows pgx.Rows, err error) ([]Product, error) {
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(productDest(&p)...); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func collectEventProducts(rows pgx.Rows, err error) ([]EventProduct, error) {
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []EventProduct
	for rows.Next() {
		var ep EventProduct
		if err := rows.Scan(eventProductDest(&ep)...); err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// ListCategoryNames returns every category name in display order.
func (s *Store) ListCategoryNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT name FROM categories ORDER BY display_order, name`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListStorefrontProducts returns platform-authorized products that are in stock.
func (s *Store) ListStorefrontProducts(ctx context.Context) ([]Product, error) {
	return collectProducts(s.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.authorized_by_platform AND p.stock >= 1
		ORDER BY p.created_at DESC, p.id`))
}

// ListProductsByCategory returns authorized products in category, matched
// case-insensitively, ordered by title.
func (s *Store) ListProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	return collectProducts(s.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.authorized_by_platform AND lower(p.category) = lower($1)
		ORDER BY p.title, p.id`, category))
}

// GetProduct loads a product and its seller.
func (s *Store) GetProduct(ctx context.Context, id string) (ProductDetail, error) {
	var (
		detail ProductDetail
		seller nullableSeller
	)
	dest := append(productDest(&detail.Product), seller.dest()...)
	err := s.db.QueryRow(ctx, `
		SELECT `+productColumns+`, `+sellerColumns+`
		FROM products p
		LEFT JOIN sellers s ON s.id = p.seller_id
		WHERE p.id = $1::uuid`, id).Scan(dest...)
	if err != nil {
		return ProductDetail{}, mapError(err)
	}
	detail.Seller = seller.seller()
	return detail, nil
}

// ListEventProductsForProducts returns the overrides for productIDs whose
// event has not ended at now. Several may be active for one product; callers
// pick with pricing.SelectEventProduct.
func (s *Store) ListEventProductsForProducts(ctx context.Context, productIDs []string, now time.Time) ([]EventProduct, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	return collectEventProducts(s.db.Query(ctx, `
		SELECT `+eventProductColumns+`
		FROM event_products ep
		JOIN events e ON e.id = ep.event_id
		WHERE ep.product_id = ANY($1::text[]::uuid[]) AND e.end_date > $2
		ORDER BY ep.created_at DESC, ep.id`, productIDs, now))
}

// ListFeaturedEventProducts returns overrides whose event window contains now,
// newest enrolment first, joined with their authorized products.
func (s *Store) ListFeaturedEventProducts(ctx context.Context, now time.Time, limit int) ([]FeaturedProduct, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+eventProductColumns+`, `+productColumns+`
		FROM event_products ep
		JOIN events e ON e.id = ep.event_id
		JOIN products p ON p.id = ep.product_id
		WHERE e.start_date <= $1 AND e.end_date > $1 AND p.authorized_by_platform
		ORDER BY ep.created_at DESC, ep.id
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []FeaturedProduct
	for rows.Next() {
		var fp FeaturedProduct
		dest := append(eventProductDest(&fp.EventProduct), productDest(&fp.Product)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}
