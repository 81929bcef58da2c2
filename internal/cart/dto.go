package cart

import (
	"time"

	"github.com/noah-isme/storefront/internal/pricing"
)

// Line is a cart item with its price resolved at request time.
type Line struct {
	ID         string            `json:"id"`
	ProductID  string            `json:"productId"`
	Title      string            `json:"title"`
	Image      string            `json:"image,omitempty"`
	SellerName string            `json:"sellerName,omitempty"`
	Quantity   int               `json:"quantity"`
	Stock      int               `json:"stock"`
	InStock    bool              `json:"inStock"`
	Price      pricing.LinePrice `json:"price"`
	SaleEndsAt *time.Time        `json:"saleEndsAt,omitempty"`
}

// Cart is the priced cart with its order breakdown.
type Cart struct {
	Lines []Line             `json:"lines"`
	Total pricing.OrderTotal `json:"total"`
}

// AddItemRequest is the payload of POST /cart/items.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=100"`
}

// AdjustItemRequest is the payload of PATCH /cart/items/{itemId}.
type AdjustItemRequest struct {
	Delta int `json:"delta" validate:"required,min=-100,max=100"`
}
