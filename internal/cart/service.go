package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront/internal/lock"
	"github.com/noah-isme/storefront/internal/obs"
	"github.com/noah-isme/storefront/internal/pricing"
	"github.com/noah-isme/storefront/internal/store"
)

var (
	// ErrNotFound is returned when the line or product does not exist for the caller.
	ErrNotFound = errors.New("cart: not found")
	// ErrOutOfStock is returned when a product has no stock left to put in a cart.
	ErrOutOfStock = errors.New("cart: out of stock")
)

type queryProvider interface {
	ListCartLines(ctx context.Context, userID string, now time.Time) ([]store.CartLine, error)
	GetCartLine(ctx context.Context, userID, itemID string) (store.CartLine, error)
	FindCartLineByProduct(ctx context.Context, userID, productID string) (store.CartLine, error)
	GetProduct(ctx context.Context, id string) (store.ProductDetail, error)
	UpsertCartLine(ctx context.Context, userID, productID string, quantity int) (string, error)
	UpdateCartQuantity(ctx context.Context, userID, itemID string, quantity int) error
	DeleteCartLine(ctx context.Context, userID, itemID string) error
}

type lineLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service manages a user's cart.
type Service struct {
	queries queryProvider
	locker  lineLocker
	lockTTL time.Duration
	logger  zerolog.Logger
	Now     func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries queryProvider
	Locker  lineLocker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("cart: queries provider is required")
	}
	if cfg.Locker == nil {
		return nil, errors.New("cart: locker is required")
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Service{
		queries: cfg.Queries,
		locker:  cfg.Locker,
		lockTTL: ttl,
		logger:  cfg.Logger,
		Now:     time.Now,
	}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// View prices every line of the user's cart at the current time.
func (s *Service) View(ctx context.Context, userID string) (Cart, error) {
	now := s.now()
	rows, err := s.queries.ListCartLines(ctx, userID, now)
	if err != nil {
		return Cart{}, fmt.Errorf("list cart: %w", err)
	}
	out := Cart{Lines: make([]Line, 0, len(rows))}
	inputs := make([]pricing.CartLine, 0, len(rows))
	for _, row := range rows {
		input := pricing.CartLine{
			ID:       row.ID,
			Product:  row.Product.Pricing(),
			Quantity: row.Quantity,
			Event:    pricing.SelectEventProduct(store.PricingOverrides(row.Overrides), now),
		}
		price, err := pricing.ResolveLine(input, now)
		if err != nil {
			return Cart{}, fmt.Errorf("price line %s: %w", row.ID, err)
		}
		inputs = append(inputs, input)
		out.Lines = append(out.Lines, toLine(row, input, price))
	}
	total, err := pricing.ComposeOrderTotal(inputs, now)
	if err != nil {
		return Cart{}, fmt.Errorf("compose total: %w", err)
	}
	out.Total = total
	obs.ObserveOrderTotal(total.FinalAmount)
	return out, nil
}

// Add puts quantity units of productID in the cart, merging with an existing
// line. The resulting quantity is clamped to the product's stock.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) (Cart, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return Cart{}, fmt.Errorf("%w: product %q", ErrNotFound, productID)
	}
	if quantity < 1 {
		quantity = 1
	}
	err := s.locker.WithLock(ctx, lineKey(userID, productID), s.lockTTL, func(ctx context.Context) error {
		detail, err := s.queries.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: product %q", ErrNotFound, productID)
			}
			return fmt.Errorf("get product: %w", err)
		}
		if !detail.Product.Authorized {
			return fmt.Errorf("%w: product %q", ErrNotFound, productID)
		}

		current, delta := 1, quantity-1
		existing, err := s.queries.FindCartLineByProduct(ctx, userID, productID)
		switch {
		case err == nil:
			current, delta = existing.Quantity, quantity
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("find cart line: %w", err)
		}
		next, err := clamp(current, delta, detail.Product.Stock)
		if err != nil {
			return err
		}
		if _, err := s.queries.UpsertCartLine(ctx, userID, productID, next); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: product %q", ErrNotFound, productID)
			}
			return fmt.Errorf("upsert cart line: %w", err)
		}
		return nil
	})
	if err != nil {
		return Cart{}, err
	}
	return s.View(ctx, userID)
}

// Adjust applies delta to a line's quantity, bounded to [1, stock].
//
// Clients update the quantity on screen first and send the delta. The cart
// returned here is authoritative: the client replaces its optimistic value
// with it, or restores the previous value when the call fails.
func (s *Service) Adjust(ctx context.Context, userID, itemID string, delta int) (Cart, error) {
	if _, err := uuid.Parse(itemID); err != nil {
		return Cart{}, fmt.Errorf("%w: item %q", ErrNotFound, itemID)
	}
	// Add addresses lines by product, so the lock is taken on the line's
	// product and the line is read again once it is held.
	found, err := s.getLine(ctx, userID, itemID)
	if err != nil {
		return Cart{}, err
	}
	err = s.locker.WithLock(ctx, lineKey(userID, found.ProductID), s.lockTTL, func(ctx context.Context) error {
		line, err := s.getLine(ctx, userID, itemID)
		if err != nil {
			return err
		}
		next, err := clamp(line.Quantity, delta, line.Product.Stock)
		if err != nil {
			obs.RecordCartAdjust("rejected")
			return err
		}
		if next == line.Quantity {
			obs.RecordCartAdjust("unchanged")
			return nil
		}
		if err := s.queries.UpdateCartQuantity(ctx, userID, itemID, next); err != nil {
			obs.RecordCartAdjust("error")
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: item %q", ErrNotFound, itemID)
			}
			return fmt.Errorf("update quantity: %w", err)
		}
		obs.RecordCartAdjust("changed")
		s.logger.Debug().Str("item_id", itemID).Int("from", line.Quantity).Int("to", next).Msg("cart quantity adjusted")
		return nil
	})
	if err != nil {
		return Cart{}, err
	}
	return s.View(ctx, userID)
}

// lineKey names the lock guarding the user's cart line for productID.
func lineKey(userID, productID string) string {
	return lock.Key("cart", userID, "product", productID)
}

func (s *Service) getLine(ctx context.Context, userID, itemID string) (store.CartLine, error) {
	line, err := s.queries.GetCartLine(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.CartLine{}, fmt.Errorf("%w: item %q", ErrNotFound, itemID)
		}
		return store.CartLine{}, fmt.Errorf("get cart line: %w", err)
	}
	return line, nil
}

// Remove deletes a line from the cart.
func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return fmt.Errorf("%w: item %q", ErrNotFound, itemID)
	}
	if err := s.queries.DeleteCartLine(ctx, userID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: item %q", ErrNotFound, itemID)
		}
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}

// clamp maps the engine's zero-stock rejection onto ErrOutOfStock.
func clamp(current, delta, stock int) (int, error) {
	if stock < 1 {
		return 0, ErrOutOfStock
	}
	next, err := pricing.ClampQuantity(current, delta, stock)
	if err != nil {
		return 0, fmt.Errorf("clamp quantity: %w", err)
	}
	return next, nil
}

func toLine(row store.CartLine, input pricing.CartLine, price pricing.LinePrice) Line {
	line := Line{
		ID:        row.ID,
		ProductID: row.ProductID,
		Title:     row.Product.Title,
		Quantity:  row.Quantity,
		Stock:     row.Product.Stock,
		InStock:   row.Product.Stock >= row.Quantity,
		Price:     price,
	}
	if len(row.Product.Images) > 0 {
		line.Image = row.Product.Images[0]
	}
	if row.Seller != nil {
		line.SellerName = row.Seller.BusinessName
	}
	if price.OnSale && input.Event != nil {
		end := input.Event.Window.End
		line.SaleEndsAt = &end
	}
	return line
}
