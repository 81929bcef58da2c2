package pricing

import (
	"errors"
	"time"
)

// ErrInvalidInput is returned when a record is structurally invalid, such as a
// negative stock level or a cart quantity below one. Missing optional data is
// never reported through this error; it degrades to documented zero values.
var ErrInvalidInput = errors.New("invalid pricing input")

// Money represents a monetary value stored in minor units (paise).
type Money = int64

// Rupees converts whole rupees into minor units.
func Rupees(v int64) Money {
	return v * 100
}

// Product is the slice of a catalog product the pricing rules read.
type Product struct {
	ID            string
	RegularPrice  *Money
	OriginalPrice *Money
	Stock         int
	Ratings       Histogram
	CreatedAt     time.Time
}

// EventWindow is the half-open interval [Start, End) in which an event runs.
type EventWindow struct {
	Start time.Time
	End   time.Time
}

// EventProduct ties a product to an event with a promotional price.
type EventProduct struct {
	ID         string
	EventID    string
	ProductID  string
	EventPrice Money
	Window     EventWindow
	CreatedAt  time.Time
}

// CartLine is a product in a cart together with its requested quantity and the
// promotional override selected for it, if any.
type CartLine struct {
	ID       string
	Product  Product
	Quantity int
	Event    *EventProduct
}

// Ptr returns a pointer to a copy of v.
func Ptr(v Money) *Money {
	return &v
}
