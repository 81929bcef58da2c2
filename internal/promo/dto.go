package promo

import (
	"time"

	"github.com/noah-isme/storefront/internal/common"
	"github.com/noah-isme/storefront/internal/store"
)

// EventView is a sale campaign as shown to shoppers and sellers.
type EventView struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	Running          bool      `json:"running"`
	RemainingSeconds int64     `json:"remainingSeconds"`
}

// ShopEventProduct is a seller's enrolment annotated with the discount its
// event price gives against the product's regular price.
type ShopEventProduct struct {
	store.ShopEventProduct
	DiscountPercent int  `json:"discountPercent"`
	Running         bool `json:"running"`
}

// BannerPage is one page of the admin banner list.
type BannerPage struct {
	Items      []store.Banner    `json:"items"`
	Pagination common.Pagination `json:"pagination"`
}

// CreateEventProductRequest enrols a product in an event.
type CreateEventProductRequest struct {
	EventID    string `json:"eventId" validate:"required,uuid"`
	ProductID  string `json:"productId" validate:"required,uuid"`
	EventPrice int64  `json:"eventPrice" validate:"gt=0"`
}

// UpdateEventProductRequest changes an enrolment's event price.
type UpdateEventProductRequest struct {
	EventPrice int64 `json:"eventPrice" validate:"gt=0"`
}

// BannerRequest creates a banner.
type BannerRequest struct {
	Title        string  `json:"title" validate:"required,max=120"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
	ImageURL     string  `json:"imageUrl" validate:"required,url"`
	ClickRoute   *string `json:"clickRoute" validate:"omitempty,max=200"`
	DisplayOrder int     `json:"displayOrder" validate:"min=0"`
	IsActive     *bool   `json:"isActive"`
}

// BannerPatchRequest updates the supplied banner fields.
type BannerPatchRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=120"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
	ImageURL     *string `json:"imageUrl" validate:"omitempty,url"`
	ClickRoute   *string `json:"clickRoute" validate:"omitempty,max=200"`
	DisplayOrder *int    `json:"displayOrder" validate:"omitempty,min=0"`
	IsActive     *bool   `json:"isActive"`
}

// BannerStatusRequest toggles a banner.
type BannerStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
