package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ReceiptsClosedTotal counts receipt close outcomes.
	ReceiptsClosedTotal *prometheus.CounterVec
	// ReceiptItemMutationsTotal counts line item adds, updates and removals.
	ReceiptItemMutationsTotal *prometheus.CounterVec
	// PricingDuration records how long a full pricing pass takes in milliseconds.
	PricingDuration prometheus.Histogram
	// CurrencyConversionTotal counts currency conversion outcomes per target currency.
	CurrencyConversionTotal *prometheus.CounterVec
	// FreeItemsGrantedTotal counts units granted for free by buy-n-get-n offers.
	FreeItemsGrantedTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ReceiptsClosedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_closed_total",
			Help:      "Count of receipt close outcomes.",
		}, []string{"result"})
		ReceiptItemMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_item_mutations_total",
			Help:      "Count of receipt line item mutations by kind.",
		}, []string{"kind"})
		PricingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_duration_ms",
			Help:      "Duration of a full receipt pricing pass in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		})
		CurrencyConversionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "currency_conversion_total",
			Help:      "Count of currency conversion outcomes per target currency.",
		}, []string{"currency", "result"})
		FreeItemsGrantedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "free_items_granted_total",
			Help:      "Units added to receipts for free by buy-n-get-n offers.",
		})

		mustRegisterCollector(reg, ReceiptsClosedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReceiptsClosedTotal = v
			}
		})
		mustRegisterCollector(reg, ReceiptItemMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReceiptItemMutationsTotal = v
			}
		})
		mustRegisterCollector(reg, PricingDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				PricingDuration = v
			}
		})
		mustRegisterCollector(reg, CurrencyConversionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CurrencyConversionTotal = v
			}
		})
		mustRegisterCollector(reg, FreeItemsGrantedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				FreeItemsGrantedTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
