package store

import (
	"time"

	"github.com/noah-isme/storefront/internal/pricing"
)

// Product is a catalog row. Prices are minor units; nil means unset.
type Product struct {
	ID               string            `json:"id"`
	SellerID         string            `json:"sellerId"`
	Title            string            `json:"title"`
	Brand            string            `json:"brand"`
	Category         string            `json:"category"`
	Subcategory      string            `json:"subcategory"`
	ShortDescription string            `json:"shortDescription"`
	RegularPrice     *int64            `json:"regularPrice"`
	OriginalPrice    *int64            `json:"originalPrice"`
	Stock            int               `json:"stock"`
	Images           []string          `json:"images"`
	Tags             []string          `json:"tags"`
	Ratings          pricing.Histogram `json:"ratings"`
	Authorized       bool              `json:"authorized"`
	CreatedAt        time.Time         `json:"createdAt"`

	DetailedDescription *string            `json:"detailedDescription"`
	Specifications      map[string]any     `json:"specifications"`
	Warranty            *string            `json:"warranty"`
	ReplacementReturn   *ReplacementReturn `json:"replacementReturn"`
	VideoURL            *string            `json:"videoUrl"`
	// Colors maps a colour name to the image showing that variant.
	Colors       map[string]string `json:"colors"`
	DeliveryFree bool              `json:"deliveryFree"`
	CODAvailable bool              `json:"codAvailable"`
}

// ReplacementReturn is the return policy stored as JSON on a product.
type ReplacementReturn struct {
	Available bool `json:"available"`
	Days      int  `json:"days,omitempty"`
}

// Pricing projects the row onto the pricing engine's input.
func (p Product) Pricing() pricing.Product {
	return pricing.Product{
		ID:            p.ID,
		RegularPrice:  p.RegularPrice,
		OriginalPrice: p.OriginalPrice,
		Stock:         p.Stock,
		Ratings:       p.Ratings,
		CreatedAt:     p.CreatedAt,
	}
}

// Seller is the public part of a seller account.
type Seller struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"businessName"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProductDetail is a product joined with its seller, when one exists.
type ProductDetail struct {
	Product Product `json:"product"`
	Seller  *Seller `json:"seller"`
}

// Event is a time-boxed sale campaign.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// EventProduct is a seller's per-event price override for one product.
type EventProduct struct {
	ID         string    `json:"id"`
	EventID    string    `json:"eventId"`
	ProductID  string    `json:"productId"`
	ShopID     string    `json:"shopId"`
	EventPrice int64     `json:"eventPrice"`
	CreatedAt  time.Time `json:"createdAt"`
	Event      Event     `json:"event"`
}

// Pricing projects the row onto the pricing engine's override input.
func (ep EventProduct) Pricing() pricing.EventProduct {
	return pricing.EventProduct{
		ID:         ep.ID,
		EventID:    ep.EventID,
		ProductID:  ep.ProductID,
		EventPrice: ep.EventPrice,
		Window:     pricing.EventWindow{Start: ep.Event.StartDate, End: ep.Event.EndDate},
		CreatedAt:  ep.CreatedAt,
	}
}

// PricingOverrides converts rows into pricing overrides.
func PricingOverrides(rows []EventProduct) []pricing.EventProduct {
	out := make([]pricing.EventProduct, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Pricing())
	}
	return out
}

// FeaturedProduct pairs a running override with its product.
type FeaturedProduct struct {
	EventProduct EventProduct `json:"eventProduct"`
	Product      Product      `json:"product"`
}

// ShopEventProduct is a seller dashboard row.
type ShopEventProduct struct {
	EventProduct
	ProductTitle string   `json:"productTitle"`
	RegularPrice *int64   `json:"regularPrice"`
	Images       []string `json:"images"`
}

// NewEventProduct holds the fields a seller supplies when enrolling a product.
type NewEventProduct struct {
	EventID    string
	ProductID  string
	ShopID     string
	EventPrice int64
}

// Banner is a home page carousel slide.
type Banner struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	ImageURL     string    `json:"imageUrl"`
	ClickRoute   *string   `json:"clickRoute"`
	DisplayOrder int       `json:"displayOrder"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BannerInput creates a banner.
type BannerInput struct {
	Title        string
	Description  *string
	ImageURL     string
	ClickRoute   *string
	DisplayOrder int
	IsActive     bool
}

// BannerPatch updates the non-nil fields of a banner.
type BannerPatch struct {
	Title        *string
	Description  *string
	ImageURL     *string
	ClickRoute   *string
	DisplayOrder *int
	IsActive     *bool
}

// CartLine is a cart row joined with its product, seller and candidate
// event overrides.
type CartLine struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	ProductID string         `json:"productId"`
	Quantity  int            `json:"quantity"`
	CreatedAt time.Time      `json:"createdAt"`
	Product   Product        `json:"product"`
	Seller    *Seller        `json:"seller"`
	Overrides []EventProduct `json:"overrides"`
}

// User is the storefront profile of an authenticated account.
type User struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phoneNumber"`
	Name        *string   `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
