package pricing

import (
	"sort"
	"time"
)

// Active reports whether now falls inside the window. The end instant itself is
// outside the window.
func (w EventWindow) Active(now time.Time) bool {
	if w.End.IsZero() {
		return false
	}
	if !w.Start.IsZero() && now.Before(w.Start) {
		return false
	}
	return now.Before(w.End)
}

// Remaining returns the time left until the window closes, or zero when the
// window is not active.
func (w EventWindow) Remaining(now time.Time) time.Duration {
	if !w.Active(now) {
		return 0
	}
	return w.End.Sub(now)
}

// appliesAt reports whether the override should replace the product price.
// A zero event price is treated as unset.
func (ep *EventProduct) appliesAt(now time.Time) bool {
	return ep != nil && ep.EventPrice > 0 && ep.Window.Active(now)
}

// ResolveEffectivePrice returns the price the customer pays for p at now.
// The active event price wins, then the regular price, then the original
// price; a product with no price at all resolves to zero.
func ResolveEffectivePrice(p Product, ep *EventProduct, now time.Time) Money {
	if ep.appliesAt(now) {
		return ep.EventPrice
	}
	if p.RegularPrice != nil {
		return nonNegative(*p.RegularPrice)
	}
	if p.OriginalPrice != nil {
		return nonNegative(*p.OriginalPrice)
	}
	return 0
}

// SelectEventProduct picks the authoritative override among candidates for a
// single product. Only overrides active at now are considered. The lowest event
// price wins; ties go to the most recently created row, then the lowest ID.
func SelectEventProduct(candidates []EventProduct, now time.Time) *EventProduct {
	active := make([]EventProduct, 0, len(candidates))
	for _, c := range candidates {
		if c.appliesAt(now) {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil
	}
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if a.EventPrice != b.EventPrice {
			return a.EventPrice < b.EventPrice
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	selected := active[0]
	return &selected
}

func nonNegative(v Money) Money {
	if v < 0 {
		return 0
	}
	return v
}
