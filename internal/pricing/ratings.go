package pricing

import (
	"fmt"
	"time"
)

const (
	// NewRaterThreshold is the rater count below which a product is badged new.
	NewRaterThreshold = 20
	// NewProductWindow is how long after creation a product is badged new.
	NewProductWindow = 15 * 24 * time.Hour
)

// Histogram maps a star level (1-5) to the number of raters who chose it.
// It decodes from JSON objects keyed by "1".."5".
type Histogram map[int]int

// RatingSummary aggregates a histogram.
type RatingSummary struct {
	Average float64 `json:"average"`
	Total   int     `json:"total"`
	IsNew   bool    `json:"isNew"`
}

// StarShare is a single row of the per-star breakdown.
type StarShare struct {
	Star    int     `json:"star"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// AggregateRatings computes the unrounded average and the total number of
// raters, and classifies the product as new when it has fewer than
// NewRaterThreshold raters or was created within NewProductWindow of now.
func AggregateRatings(h Histogram, createdAt, now time.Time) (RatingSummary, error) {
	if err := h.validate(); err != nil {
		return RatingSummary{}, err
	}
	var total, points int
	for star, count := range h {
		total += count
		points += star * count
	}
	summary := RatingSummary{Total: total}
	if total > 0 {
		summary.Average = float64(points) / float64(total)
	}
	summary.IsNew = total < NewRaterThreshold || IsRecent(createdAt, now)
	return summary, nil
}

// IsRecent reports whether createdAt lies within NewProductWindow before now.
func IsRecent(createdAt, now time.Time) bool {
	if createdAt.IsZero() {
		return false
	}
	return createdAt.After(now.Add(-NewProductWindow))
}

// RatingBreakdown lists every star level from 5 down to 1 with its share of
// the total. Levels missing from h are reported with a zero count.
func RatingBreakdown(h Histogram) ([]StarShare, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	var total int
	for _, count := range h {
		total += count
	}
	out := make([]StarShare, 0, 5)
	for star := 5; star >= 1; star-- {
		count := h[star]
		share := StarShare{Star: star, Count: count}
		if total > 0 {
			share.Percent = float64(count) * 100 / float64(total)
		}
		out = append(out, share)
	}
	return out, nil
}

func (h Histogram) validate() error {
	for star, count := range h {
		if star < 1 || star > 5 {
			return fmt.Errorf("%w: star level %d out of range", ErrInvalidInput, star)
		}
		if count < 0 {
			return fmt.Errorf("%w: negative rater count for %d stars", ErrInvalidInput, star)
		}
	}
	return nil
}
