package pricing

// Discount is the user-facing reduction from the original price.
type Discount struct {
	Percent int   `json:"percent"`
	Savings Money `json:"savings"`
}

// ComputeDiscount derives the whole-percent discount badge and the absolute
// savings of effective against original. Without an original price above the
// effective price there is no discount.
func ComputeDiscount(effective Money, original *Money) Discount {
	if original == nil || *original <= 0 {
		return Discount{}
	}
	effective = nonNegative(effective)
	o := *original
	if o <= effective {
		return Discount{}
	}
	diff := o - effective
	// round half up: floor((200*diff + o) / (2*o))
	percent := (diff*200 + o) / (2 * o)
	return Discount{Percent: int(percent), Savings: diff}
}
