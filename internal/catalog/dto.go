package catalog

import (
	"time"

	"github.com/noah-isme/storefront/internal/pricing"
)

// Card badges.
const (
	BadgeNew  = "NEW"
	BadgeSale = "SALE"
)

// Rating is the compact rating shown on cards.
type Rating struct {
	Average float64 `json:"average"`
	Total   int     `json:"total"`
}

// ProductCard is the listing representation of a product priced at request time.
type ProductCard struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Brand           string     `json:"brand"`
	Category        string     `json:"category"`
	Subcategory     string     `json:"subcategory,omitempty"`
	Image           *string    `json:"image,omitempty"`
	Price           int64      `json:"price"`
	CompareAt       *int64     `json:"compareAt,omitempty"`
	DiscountPercent int        `json:"discountPercent"`
	Savings         int64      `json:"savings"`
	Rating          Rating     `json:"rating"`
	InStock         bool       `json:"inStock"`
	Badges          []string   `json:"badges"`
	SaleEndsAt      *time.Time `json:"saleEndsAt,omitempty"`
}

// Banner is a public carousel slide.
type Banner struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	ImageURL    string  `json:"imageUrl"`
	ClickRoute  *string `json:"clickRoute,omitempty"`
}

// Shelf is a titled row of cards.
type Shelf struct {
	Title    string        `json:"title"`
	Products []ProductCard `json:"products"`
}

// HomePage is the storefront landing payload.
type HomePage struct {
	Banners  []Banner      `json:"banners"`
	Featured []ProductCard `json:"featured"`
	Shelves  []Shelf       `json:"shelves"`
}

// CategoryPage lists a category's products grouped by subcategory.
type CategoryPage struct {
	Category      string        `json:"category"`
	Subcategories []string      `json:"subcategories"`
	Sections      []Shelf       `json:"sections"`
	Products      []ProductCard `json:"products"`
}

// Seller is the seller box on the product page.
type Seller struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"businessName"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Since        time.Time `json:"since"`
}

// Sale describes the override currently applied to a product.
type Sale struct {
	EventID          string    `json:"eventId"`
	EventTitle       string    `json:"eventTitle"`
	EventPrice       int64     `json:"eventPrice"`
	EndsAt           time.Time `json:"endsAt"`
	RemainingSeconds int64     `json:"remainingSeconds"`
}

// ProductView is the product page payload.
type ProductView struct {
	ProductCard
	ShortDescription string              `json:"shortDescription"`
	Images           []string            `json:"images"`
	Tags             []string            `json:"tags"`
	Stock            int                 `json:"stock"`
	IsNew            bool                `json:"isNew"`
	RatingBreakdown  []pricing.StarShare `json:"ratingBreakdown"`
	Seller           *Seller             `json:"seller,omitempty"`
	Sale             *Sale               `json:"sale,omitempty"`

	// Description is the detailed description, else the short one.
	Description    string            `json:"description"`
	Specifications map[string]any    `json:"specifications"`
	Warranty       *string           `json:"warranty,omitempty"`
	ReturnPolicy   *ReturnPolicy     `json:"returnPolicy,omitempty"`
	VideoURL       *string           `json:"videoUrl,omitempty"`
	Colors         map[string]string `json:"colors"`
	// Gallery lists the product images followed by colour variant images
	// not already among them, in colour name order.
	Gallery      []string `json:"gallery"`
	DeliveryFree bool     `json:"deliveryFree"`
	CODAvailable bool     `json:"codAvailable"`
}

// ReturnPolicy is the replacement and return box on the product page.
type ReturnPolicy struct {
	Available bool `json:"available"`
	Days      int  `json:"days,omitempty"`
}
