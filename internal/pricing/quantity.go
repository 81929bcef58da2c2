package pricing

import "fmt"

// ClampQuantity applies delta to current and bounds the result to [1, stock].
// Removing a line is a separate action, so the result never drops below one.
// A stock of zero leaves no legal quantity and is rejected.
func ClampQuantity(current, delta, stock int) (int, error) {
	if current < 1 {
		return 0, fmt.Errorf("%w: current quantity %d", ErrInvalidInput, current)
	}
	if stock < 1 {
		return 0, fmt.Errorf("%w: stock %d leaves no legal quantity", ErrInvalidInput, stock)
	}
	switch {
	case delta >= stock:
		return stock, nil
	case delta <= -current:
		return 1, nil
	}
	next := current + delta
	if next > stock {
		next = stock
	}
	if next < 1 {
		next = 1
	}
	return next, nil
}
