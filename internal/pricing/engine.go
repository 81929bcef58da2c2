package pricing

import (
	"fmt"
	"time"
)

// DeliveryFee is charged once per non-empty order.
var DeliveryFee = Rupees(59)

// platformFeeTiers is ordered by ascending ceiling; subtotals above the last
// ceiling pay platformFeeTop.
var platformFeeTiers = []struct {
	upTo Money
	fee  Money
}{
	{upTo: Rupees(300), fee: Rupees(5)},
	{upTo: Rupees(1000), fee: Rupees(10)},
	{upTo: Rupees(5000), fee: Rupees(20)},
	{upTo: Rupees(25000), fee: Rupees(50)},
}

var platformFeeTop = Rupees(100)

// LinePrice is the per-line pricing view rendered next to each cart item.
type LinePrice struct {
	UnitPrice        Money    `json:"unitPrice"`
	CompareAt        Money    `json:"compareAt"`
	Discount         Discount `json:"discount"`
	Subtotal         Money    `json:"subtotal"`
	OriginalSubtotal Money    `json:"originalSubtotal"`
	OnSale           bool     `json:"onSale"`
}

// OrderTotal aggregates a cart into the amounts shown in the price details box.
type OrderTotal struct {
	ItemCount         int   `json:"itemCount"`
	SubtotalOriginal  Money `json:"subtotalOriginal"`
	SubtotalEffective Money `json:"subtotalEffective"`
	TotalDiscount     Money `json:"totalDiscount"`
	PlatformFee       Money `json:"platformFee"`
	DeliveryFee       Money `json:"deliveryFee"`
	FinalAmount       Money `json:"finalAmount"`
}

// PlatformFee returns the tiered platform surcharge for an effective subtotal.
func PlatformFee(subtotal Money) Money {
	for _, tier := range platformFeeTiers {
		if subtotal <= tier.upTo {
			return tier.fee
		}
	}
	return platformFeeTop
}

// ResolveLine prices a single cart line at now.
func ResolveLine(line CartLine, now time.Time) (LinePrice, error) {
	if line.Quantity < 1 {
		return LinePrice{}, fmt.Errorf("%w: line %q quantity %d", ErrInvalidInput, line.ID, line.Quantity)
	}
	if err := validateProduct(line.Product); err != nil {
		return LinePrice{}, err
	}
	if line.Event != nil && line.Event.EventPrice < 0 {
		return LinePrice{}, fmt.Errorf("%w: negative event price", ErrInvalidInput)
	}
	unit := ResolveEffectivePrice(line.Product, line.Event, now)
	compareAt := unit
	if op := line.Product.OriginalPrice; op != nil && *op > 0 {
		compareAt = *op
	}
	qty := Money(line.Quantity)
	return LinePrice{
		UnitPrice:        unit,
		CompareAt:        compareAt,
		Discount:         ComputeDiscount(unit, line.Product.OriginalPrice),
		Subtotal:         unit * qty,
		OriginalSubtotal: compareAt * qty,
		OnSale:           line.Event.appliesAt(now),
	}, nil
}

// ComposeOrderTotal computes the price breakdown for lines at now. An empty
// cart is never charged fees.
func ComposeOrderTotal(lines []CartLine, now time.Time) (OrderTotal, error) {
	var total OrderTotal
	for _, line := range lines {
		lp, err := ResolveLine(line, now)
		if err != nil {
			return OrderTotal{}, err
		}
		total.ItemCount += line.Quantity
		total.SubtotalEffective += lp.Subtotal
		total.SubtotalOriginal += lp.OriginalSubtotal
	}
	if total.ItemCount == 0 {
		return OrderTotal{}, nil
	}
	total.TotalDiscount = nonNegative(total.SubtotalOriginal - total.SubtotalEffective)
	total.PlatformFee = PlatformFee(total.SubtotalEffective)
	total.DeliveryFee = DeliveryFee
	total.FinalAmount = total.SubtotalEffective + total.PlatformFee + total.DeliveryFee
	return total, nil
}

func validateProduct(p Product) error {
	if p.Stock < 0 {
		return fmt.Errorf("%w: product %q has negative stock", ErrInvalidInput, p.ID)
	}
	if p.RegularPrice != nil && *p.RegularPrice < 0 {
		return fmt.Errorf("%w: product %q has negative regular price", ErrInvalidInput, p.ID)
	}
	if p.OriginalPrice != nil && *p.OriginalPrice < 0 {
		return fmt.Errorf("%w: product %q has negative original price", ErrInvalidInput, p.ID)
	}
	return nil
}
