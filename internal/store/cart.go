package store

import (
	"context"
	"time"
)

const cartLineColumns = `c.id::text, c.user_id::text, c.product_id::text, c.quantity, c.created_at`

func (s *Store) scanCartLines(ctx context.Context, sql string, args ...any) ([]CartLine, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []CartLine
	for rows.Next() {
		var (
			line   CartLine
			seller nullableSeller
		)
		dest := []any{&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt}
		dest = append(dest, productDest(&line.Product)...)
		dest = append(dest, seller.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		line.Seller = seller.seller()
		out = append(out, line)
	}
	return out, rows.Err()
}

// ListCartLines returns the user's cart, oldest line first, with each line's
// candidate event overrides that have not ended at now.
func (s *Store) ListCartLines(ctx context.Context, userID string, now time.Time) ([]CartLine, error) {
	lines, err := s.scanCartLines(ctx, `
		SELECT `+cartLineColumns+`, `+productColumns+`, `+sellerColumns+`
		FROM cart c
		JOIN products p ON p.id = c.product_id
		LEFT JOIN sellers s ON s.id = p.seller_id
		WHERE c.user_id = $1::uuid
		ORDER BY c.created_at, c.id`, userID)
	if err != nil || len(lines) == 0 {
		return lines, err
	}
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	overrides, err := s.ListEventProductsForProducts(ctx, ids, now)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[string][]EventProduct, len(overrides))
	for _, ep := range overrides {
		byProduct[ep.ProductID] = append(byProduct[ep.ProductID], ep)
	}
	for i := range lines {
		lines[i].Overrides = byProduct[lines[i].ProductID]
	}
	return lines, nil
}

// GetCartLine loads one of the user's lines with its product.
func (s *Store) GetCartLine(ctx context.Context, userID, itemID string) (CartLine, error) {
	lines, err := s.scanCartLines(ctx, `
		SELECT `+cartLineColumns+`, `+productColumns+`, `+sellerColumns+`
		FROM cart c
		JOIN products p ON p.id = c.product_id
		LEFT JOIN sellers s ON s.id = p.seller_id
		WHERE c.user_id = $1::uuid AND c.id = $2::uuid`, userID, itemID)
	if err != nil {
		return CartLine{}, err
	}
	if len(lines) == 0 {
		return CartLine{}, ErrNotFound
	}
	return lines[0], nil
}

// FindCartLineByProduct returns the user's existing line for productID.
func (s *Store) FindCartLineByProduct(ctx context.Context, userID, productID string) (CartLine, error) {
	lines, err := s.scanCartLines(ctx, `
		SELECT `+cartLineColumns+`, `+productColumns+`, `+sellerColumns+`
		FROM cart c
		JOIN products p ON p.id = c.product_id
		LEFT JOIN sellers s ON s.id = p.seller_id
		WHERE c.user_id = $1::uuid AND c.product_id = $2::uuid`, userID, productID)
	if err != nil {
		return CartLine{}, err
	}
	if len(lines) == 0 {
		return CartLine{}, ErrNotFound
	}
	return lines[0], nil
}

// UpsertCartLine stores quantity for the user's line of productID, creating
// the line when absent, and returns the line id.
func (s *Store) UpsertCartLine(ctx context.Context, userID, productID string, quantity int) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, `
		INSERT INTO cart (user_id, product_id, seller_id, quantity)
		SELECT $1::uuid, p.id, p.seller_id, $3
		FROM products p
		WHERE p.id = $2::uuid
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id::text`, userID, productID, quantity).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

// UpdateCartQuantity sets the quantity of one of the user's lines.
func (s *Store) UpdateCartQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	return affectedOne(s.db.Exec(ctx, `
		UPDATE cart SET quantity = $3
		WHERE user_id = $1::uuid AND id = $2::uuid`, userID, itemID, quantity))
}

// DeleteCartLine removes one of the user's lines.
func (s *Store) DeleteCartLine(ctx context.Context, userID, itemID string) error {
	return affectedOne(s.db.Exec(ctx, `
		DELETE FROM cart WHERE user_id = $1::uuid AND id = $2::uuid`, userID, itemID))
}
