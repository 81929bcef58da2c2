package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CatalogCacheTotal counts catalog snapshot lookups by view and result (hit, miss, bypass, error).
	CatalogCacheTotal *prometheus.CounterVec
	// CartQuantityAdjustTotal counts quantity adjustments by outcome.
	CartQuantityAdjustTotal *prometheus.CounterVec
	// OrderTotalFinal records the final payable amount of priced carts in minor units.
	OrderTotalFinal prometheus.Histogram
	// EventProductWriteTotal counts seller event product writes by operation and result.
	EventProductWriteTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers storefront Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CatalogCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Count of catalog snapshot cache lookups by outcome.",
		}, []string{"view", "result"})
		CartQuantityAdjustTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_quantity_adjust_total",
			Help:      "Count of cart quantity adjustments by outcome.",
		}, []string{"result"})
		OrderTotalFinal = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_total_final_minor",
			Help:      "Final payable cart amount in minor currency units.",
			Buckets:   []float64{50000, 100000, 250000, 500000, 1000000, 2500000, 5000000},
		})
		EventProductWriteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_product_write_total",
			Help:      "Count of seller event product writes by operation and outcome.",
		}, []string{"op", "result"})

		CatalogCacheTotal = registerOrReuse(reg, CatalogCacheTotal)
		CartQuantityAdjustTotal = registerOrReuse(reg, CartQuantityAdjustTotal)
		OrderTotalFinal = registerOrReuse(reg, OrderTotalFinal)
		EventProductWriteTotal = registerOrReuse(reg, EventProductWriteTotal)
	})
}

// RecordCatalogCache increments the catalog cache counter when metrics are registered.
func RecordCatalogCache(view, result string) {
	if CatalogCacheTotal != nil {
		CatalogCacheTotal.WithLabelValues(view, result).Inc()
	}
}

// RecordCartAdjust increments the cart adjustment counter when metrics are registered.
func RecordCartAdjust(result string) {
	if CartQuantityAdjustTotal != nil {
		CartQuantityAdjustTotal.WithLabelValues(result).Inc()
	}
}

// ObserveOrderTotal records a priced cart's final amount.
func ObserveOrderTotal(minor int64) {
	if OrderTotalFinal != nil && minor > 0 {
		OrderTotalFinal.Observe(float64(minor))
	}
}

// RecordEventProductWrite increments the event product write counter.
func RecordEventProductWrite(op, result string) {
	if EventProductWriteTotal != nil {
		EventProductWriteTotal.WithLabelValues(op, result).Inc()
	}
}
